package ioc

import (
	"time"

	"github.com/redis/go-redis/v9"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/pkg/gitclient"
	"github.com/to404hanga/submission_controller/service"
	"github.com/to404hanga/submission_controller/service/buildexec"
	"github.com/to404hanga/submission_controller/service/exporter/factory"
	"github.com/to404hanga/submission_controller/service/mavenizer"
	"github.com/to404hanga/submission_controller/service/report"
	"github.com/to404hanga/submission_controller/service/storage"
	"gorm.io/gorm"
)

func InitRankingService(db *gorm.DB, rdb redis.Cmdable, builder report.Builder, l loggerv2.Logger) *service.RankingServiceImpl {
	ttl := time.Duration(pipelineConfig().LeaderboardCacheSecond) * time.Second
	if ttl <= 0 {
		ttl = service.DefaultLeaderboardTTL
	}
	return service.NewRankingService(db, rdb, builder, ttl, l)
}

func InitSubmissionService(db *gorm.DB, rdb redis.Cmdable, store storage.Storage, git gitclient.Client, m *mavenizer.Mavenizer,
	facility buildexec.Facility, ec *buildexec.ExecContext, builder report.Builder, cache service.LeaderboardCache,
	l loggerv2.Logger) service.SubmissionService {
	cfg := pipelineConfig()
	lockTimeout := time.Duration(cfg.LockTimeoutSeconds) * time.Second
	return service.NewSubmissionService(db, rdb, store, git, m, facility, ec, builder, cache, service.SubmissionConfig{
		QuickRetry: time.Duration(cfg.QuickRetryMinutes) * time.Minute,
		LockTTL:    lockTimeout,
		LockWait:   lockTimeout,
	}, l)
}

func InitFinalService(db *gorm.DB, rdb redis.Cmdable, f *factory.ExporterFactory, cache service.LeaderboardCache, l loggerv2.Logger) service.FinalService {
	return service.NewFinalService(db, rdb, f, cache, time.Duration(pipelineConfig().LockTimeoutSeconds)*time.Second, l)
}
