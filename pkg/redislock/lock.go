package redislock

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed lua/unlock.lua
var luaUnlock string

// ErrNotObtained 锁已被其他持有者占用
var ErrNotObtained = errors.New("redislock: not obtained")

type Client struct {
	rdb redis.Cmdable
	// retryInterval 抢锁失败后的重试间隔
	retryInterval time.Duration
}

func NewClient(rdb redis.Cmdable) *Client {
	return &Client{rdb: rdb, retryInterval: 50 * time.Millisecond}
}

type Lock struct {
	client *Client
	key    string
	token  string
}

// TryLock 尝试获取一次锁, 失败立即返回 ErrNotObtained
func (c *Client) TryLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("TryLock failed at setnx: %w", err)
	}
	if !ok {
		return nil, ErrNotObtained
	}
	return &Lock{client: c, key: key, token: token}, nil
}

// Lock 在 wait 时间内循环抢锁
func (c *Client) Lock(ctx context.Context, key string, ttl, wait time.Duration) (*Lock, error) {
	deadline := time.Now().Add(wait)
	for {
		l, err := c.TryLock(ctx, key, ttl)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, ErrNotObtained) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, ErrNotObtained
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryInterval):
		}
	}
}

// Unlock 仅当锁仍由自己持有时释放
func (l *Lock) Unlock(ctx context.Context) error {
	res, err := l.client.rdb.Eval(ctx, luaUnlock, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("Unlock failed at eval: %w", err)
	}
	if res == 0 {
		return ErrNotObtained
	}
	return nil
}

func (l *Lock) Key() string {
	return l.key
}
