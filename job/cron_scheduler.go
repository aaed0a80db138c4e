package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

const defaultJobTimeout = 10 * time.Minute

var jobRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "submission_controller",
		Subsystem: "cronjob",
		Name:      "runs_total",
		Help:      "Cron job runs total.",
	},
	[]string{"job", "result"},
)

func init() {
	prometheus.MustRegister(jobRunsTotal)
}

// JobFunc 任务执行函数
type JobFunc func(ctx context.Context) error

// JobConfig 任务配置
type JobConfig struct {
	Name        string
	CronExpr    string // 秒级 cron 表达式
	JobFunc     JobFunc
	Description string
	Enabled     bool
	Timeout     time.Duration
}

// JobStatus 任务状态
type JobStatus struct {
	Name         string        `json:"name"`
	CronExpr     string        `json:"cron_expr"`
	Description  string        `json:"description"`
	Enabled      bool          `json:"enabled"`
	LastRun      *time.Time    `json:"last_run,omitempty"`
	NextRun      *time.Time    `json:"next_run,omitempty"`
	LastDuration time.Duration `json:"last_duration"`
	LastError    string        `json:"last_error,omitempty"`
	RunCount     int64         `json:"run_count"`
	ErrorCount   int64         `json:"error_count"`
}

// CronScheduler 定时任务调度器, 同一任务上一次未结束时跳过本次触发
type CronScheduler struct {
	cron     *cron.Cron
	parser   cron.Parser
	jobs     map[string]*JobConfig
	statuses map[string]*JobStatus
	entries  map[string]cron.EntryID
	log      loggerv2.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.RWMutex
}

func NewCronScheduler(log loggerv2.Logger) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		parser:   cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		jobs:     make(map[string]*JobConfig),
		statuses: make(map[string]*JobStatus),
		entries:  make(map[string]cron.EntryID),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *CronScheduler) AddJob(config *JobConfig) error {
	if config.Name == "" {
		return fmt.Errorf("job name cannot be empty")
	}
	if config.JobFunc == nil {
		return fmt.Errorf("job %s: function cannot be nil", config.Name)
	}
	if config.Enabled || config.CronExpr != "" {
		if _, err := s.parser.Parse(config.CronExpr); err != nil {
			return fmt.Errorf("job %s: invalid cron expression %q: %w", config.Name, config.CronExpr, err)
		}
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultJobTimeout
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[config.Name]; exists {
		return fmt.Errorf("job %s already exists", config.Name)
	}
	s.jobs[config.Name] = config
	s.statuses[config.Name] = &JobStatus{
		Name:        config.Name,
		CronExpr:    config.CronExpr,
		Description: config.Description,
		Enabled:     config.Enabled,
	}
	s.log.Info("job added",
		logger.String("name", config.Name),
		logger.String("cron_expr", config.CronExpr),
		logger.Bool("enabled", config.Enabled))
	return nil
}

// Start 注册全部启用的任务并开始调度
func (s *CronScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron = cron.New(
		cron.WithParser(s.parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	for name, job := range s.jobs {
		if !job.Enabled {
			continue
		}
		id, err := s.cron.AddFunc(job.CronExpr, s.wrapJobFunc(name, job))
		if err != nil {
			return fmt.Errorf("Start failed at add job %s: %w", name, err)
		}
		s.entries[name] = id
	}
	s.cron.Start()
	for name, id := range s.entries {
		next := s.cron.Entry(id).Next
		s.statuses[name].NextRun = &next
	}
	s.log.Info("cron scheduler started", logger.Int("jobs", len(s.entries)))
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (s *CronScheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.mu.Unlock()

	s.cancel()
	if c != nil {
		<-c.Stop().Done()
	}
	s.log.Info("cron scheduler stopped")
}

func (s *CronScheduler) wrapJobFunc(name string, job *JobConfig) func() {
	return func() {
		start := time.Now()
		ctx := loggerv2.ContextWithFields(s.ctx, logger.String("job", name))
		err := s.run(ctx, job)
		duration := time.Since(start)

		s.mu.Lock()
		status := s.statuses[name]
		status.LastRun = &start
		status.LastDuration = duration
		status.RunCount++
		if id, ok := s.entries[name]; ok && s.cron != nil {
			next := s.cron.Entry(id).Next
			status.NextRun = &next
		}
		if err != nil {
			status.ErrorCount++
			status.LastError = err.Error()
		} else {
			status.LastError = ""
		}
		s.mu.Unlock()

		if err != nil {
			jobRunsTotal.WithLabelValues(name, "error").Inc()
			s.log.ErrorContext(ctx, "job failed", logger.String("duration", duration.String()), logger.Error(err))
			return
		}
		jobRunsTotal.WithLabelValues(name, "ok").Inc()
		s.log.InfoContext(ctx, "job completed", logger.String("duration", duration.String()))
	}
}

func (s *CronScheduler) run(ctx context.Context, job *JobConfig) error {
	ctx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()
	return job.JobFunc(ctx)
}

// GetJobStatuses 返回状态副本
func (s *CronScheduler) GetJobStatuses() map[string]JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]JobStatus, len(s.statuses))
	for name, status := range s.statuses {
		result[name] = *status
	}
	return result
}

// RunJobOnce 立即执行一次, 不计入调度统计
func (s *CronScheduler) RunJobOnce(name string) error {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.log.Info("running job manually", logger.String("name", name))
	return s.run(loggerv2.ContextWithFields(s.ctx, logger.String("job", name)), job)
}
