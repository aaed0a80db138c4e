package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func noop(context.Context) error { return nil }

func TestAddJobValidation(t *testing.T) {
	s := NewCronScheduler(loggerv2.NewLoggerAdapter(logger.NewNopLogger()))

	assert.Error(t, s.AddJob(&JobConfig{CronExpr: "0 * * * * *", JobFunc: noop}))
	assert.Error(t, s.AddJob(&JobConfig{Name: "nil", CronExpr: "0 * * * * *"}))
	assert.Error(t, s.AddJob(&JobConfig{Name: "bad", CronExpr: "every minute", JobFunc: noop, Enabled: true}))
	// 禁用且未配置表达式的任务允许登记
	assert.NoError(t, s.AddJob(&JobConfig{Name: "off", JobFunc: noop}))

	require.NoError(t, s.AddJob(&JobConfig{Name: "ok", CronExpr: "0 */5 * * * *", JobFunc: noop, Enabled: true}))
	assert.Error(t, s.AddJob(&JobConfig{Name: "ok", CronExpr: "0 */5 * * * *", JobFunc: noop, Enabled: true}))

	statuses := s.GetJobStatuses()
	require.Len(t, statuses, 2)
	assert.True(t, statuses["ok"].Enabled)
	assert.False(t, statuses["off"].Enabled)
}

func TestRunJobOnce(t *testing.T) {
	s := NewCronScheduler(loggerv2.NewLoggerAdapter(logger.NewNopLogger()))
	var calls atomic.Int32
	boom := errors.New("boom")
	require.NoError(t, s.AddJob(&JobConfig{
		Name: "count",
		JobFunc: func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			if calls.Add(1) > 1 {
				return boom
			}
			return nil
		},
		Timeout: time.Second,
	}))

	assert.NoError(t, s.RunJobOnce("count"))
	assert.ErrorIs(t, s.RunJobOnce("count"), boom)
	assert.Error(t, s.RunJobOnce("missing"))
	assert.Equal(t, int64(0), s.GetJobStatuses()["count"].RunCount)
}

func TestSchedulerRunsEnabledJobs(t *testing.T) {
	s := NewCronScheduler(loggerv2.NewLoggerAdapter(logger.NewNopLogger()))
	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddJob(&JobConfig{
		Name:     "tick",
		CronExpr: "* * * * * *",
		Enabled:  true,
		JobFunc: func(context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
	}))
	require.NoError(t, s.AddJob(&JobConfig{Name: "off", JobFunc: noop}))
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
	status := s.GetJobStatuses()["tick"]
	assert.NotNil(t, status.NextRun)
	assert.Nil(t, s.GetJobStatuses()["off"].NextRun)
}
