package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/to404hanga/pkg404/gotools/retry"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/pkg/errs"
)

const (
	handleRetryTimes    = 3
	handleRetryInterval = 500 * time.Millisecond
)

// ResultHandler 处理构建结果
type ResultHandler interface {
	HandleBuildResultMessage(ctx context.Context, msg *BuildResultMessage) error
}

type ResultHandlerFunc func(ctx context.Context, msg *BuildResultMessage) error

func (f ResultHandlerFunc) HandleBuildResultMessage(ctx context.Context, msg *BuildResultMessage) error {
	return f(ctx, msg)
}

// ResultConsumer 消费构建结果 topic, 不同提交的结果并行处理由分区决定
type ResultConsumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler ResultHandler
	log     loggerv2.Logger

	retryTimes    int
	retryInterval time.Duration
}

func NewResultConsumer(group sarama.ConsumerGroup, topic string, handler ResultHandler, log loggerv2.Logger) *ResultConsumer {
	return &ResultConsumer{
		group:   group,
		topics:  []string{topic},
		handler: handler,
		log:     log,

		retryTimes:    handleRetryTimes,
		retryInterval: handleRetryInterval,
	}
}

// Start 阻塞消费直到 ctx 取消
func (c *ResultConsumer) Start(ctx context.Context) error {
	for {
		err := c.group.Consume(ctx, c.topics, c)
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		if err != nil {
			c.log.ErrorContext(ctx, "consume build result failed", logger.Error(err))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *ResultConsumer) Close() error {
	return c.group.Close()
}

func (c *ResultConsumer) Setup(sarama.ConsumerGroupSession) error { return nil }

func (c *ResultConsumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim 基础设施故障重试耗尽后不提交位点并返回错误, 会话重建后从上次提交处重新投递
func (c *ResultConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := c.consume(session.Context(), msg); err != nil {
				return err
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// consume 返回 nil 表示该消息可以提交位点
func (c *ResultConsumer) consume(ctx context.Context, msg *sarama.ConsumerMessage) error {
	result, err := UnmarshalBuildResult(msg.Value)
	if err != nil {
		// 无法解析的消息直接丢弃
		c.log.ErrorContext(ctx, "unmarshal build result failed",
			logger.Int32("partition", msg.Partition),
			logger.Int64("offset", msg.Offset),
			logger.Error(err))
		return nil
	}
	ctx = loggerv2.ContextWithFields(ctx,
		logger.Uint64("submission_id", result.SubmissionID),
		logger.String("correlation_id", result.CorrelationID))

	var lastErr error
	err = retry.Do(ctx, func() error {
		lastErr = c.handler.HandleBuildResultMessage(ctx, result)
		if lastErr != nil && permanent(lastErr) {
			return nil
		}
		return lastErr
	}, retry.WithRetryTimes(c.retryTimes), retry.WithBaseInterval(c.retryInterval))
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		c.log.ErrorContext(ctx, "handle build result failed, leave offset uncommitted",
			logger.Int32("partition", msg.Partition),
			logger.Int64("offset", msg.Offset),
			logger.Error(lastErr))
		return fmt.Errorf("consume build result at offset %d: %w", msg.Offset, lastErr)
	}
	if lastErr != nil {
		c.log.ErrorContext(ctx, "drop build result", logger.Error(lastErr))
	}
	return nil
}

// permanent 重投也不会成功的错误
func permanent(err error) bool {
	switch errs.KindOf(err) {
	case errs.KindValidation, errs.KindNotFound, errs.KindPolicy:
		return true
	}
	return false
}
