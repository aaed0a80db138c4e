package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/IBM/sarama"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/event"
	"github.com/to404hanga/submission_controller/service/buildexec"
	"github.com/to404hanga/submission_controller/web"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	server   *web.GinServer
	consumer *event.ResultConsumer
	ec       *buildexec.ExecContext
	producer event.Producer
	client   sarama.Client
	log      loggerv2.Logger
}

func NewApp(server *web.GinServer, consumer *event.ResultConsumer, ec *buildexec.ExecContext, producer event.Producer, client sarama.Client, l loggerv2.Logger) *App {
	return &App{
		server:   server,
		consumer: consumer,
		ec:       ec,
		producer: producer,
		client:   client,
		log:      l,
	}
}

// Run 阻塞直到 ctx 取消或任一组件退出
func (a *App) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return a.consumer.Start(ctx)
	})
	eg.Go(func() error {
		a.log.Info("gin server start", logger.String("addr", a.server.Addr))
		return a.server.Start()
	})
	eg.Go(func() error {
		<-ctx.Done()
		return a.shutdown()
	})
	return eg.Wait()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	if e := a.server.Shutdown(ctx); e != nil {
		err = errors.Join(err, e)
	}
	if e := a.consumer.Close(); e != nil {
		err = errors.Join(err, e)
	}
	// 等待已受理的构建派发完成后再关闭 kafka 连接
	a.ec.Wait()
	if c, ok := a.producer.(io.Closer); ok {
		if e := c.Close(); e != nil {
			err = errors.Join(err, e)
		}
	}
	if e := a.client.Close(); e != nil {
		err = errors.Join(err, e)
	}
	a.log.Info("app stopped", logger.Any("dispatch_stats", a.ec.Stats()))
	return err
}
