package buildexec

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"golang.org/x/sync/semaphore"
)

// FailureHandler 派发失败时的回调, 用于将提交标记为 FAILED
type FailureHandler func(ctx context.Context, req BuildRequest, err error)

// Stats 派发计数快照
type Stats struct {
	Dispatched int64 `json:"dispatched"`
	Active     int64 `json:"active"`
	Failed     int64 `json:"failed"`
}

// ExecContext 构建派发的执行上下文, 由调用方显式注入
// 并发数由信号量限制, 调用方不会被阻塞
type ExecContext struct {
	sem *semaphore.Weighted

	dispatched atomic.Int64
	active     atomic.Int64
	failed     atomic.Int64

	mu        sync.RWMutex
	onFailure FailureHandler

	wg  sync.WaitGroup
	log loggerv2.Logger
}

func NewExecContext(maxConcurrent int64, log loggerv2.Logger) *ExecContext {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &ExecContext{
		sem: semaphore.NewWeighted(maxConcurrent),
		log: log,
	}
}

// SetFailureHandler 设置派发失败回调
func (e *ExecContext) SetFailureHandler(fn FailureHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFailure = fn
}

// Go 异步执行 fn, 立即返回
func (e *ExecContext) Go(ctx context.Context, req BuildRequest, fn func(ctx context.Context) error) {
	// 请求结束后派发仍需继续
	ctx = context.WithoutCancel(ctx)
	e.dispatched.Add(1)
	dispatchedTotal.Inc()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.sem.Acquire(ctx, 1); err != nil {
			e.fail(ctx, req, err)
			return
		}
		defer e.sem.Release(1)

		e.active.Add(1)
		activeGauge.Inc()
		err := fn(ctx)
		e.active.Add(-1)
		activeGauge.Dec()
		if err != nil {
			e.fail(ctx, req, err)
		}
	}()
}

func (e *ExecContext) fail(ctx context.Context, req BuildRequest, err error) {
	e.failed.Add(1)
	failedTotal.Inc()
	e.log.ErrorContext(ctx, "dispatch build failed",
		logger.Uint64("submission_id", req.SubmissionID),
		logger.String("correlation_id", req.CorrelationID),
		logger.Error(err))

	e.mu.RLock()
	fn := e.onFailure
	e.mu.RUnlock()
	if fn != nil {
		fn(ctx, req, err)
	}
}

// Wait 等待所有已派发任务结束
func (e *ExecContext) Wait() {
	e.wg.Wait()
}

func (e *ExecContext) Stats() Stats {
	return Stats{
		Dispatched: e.dispatched.Load(),
		Active:     e.active.Load(),
		Failed:     e.failed.Load(),
	}
}
