package ioc

import (
	"log"
	"time"

	"github.com/spf13/viper"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/cmd/cronjob/config"
	commonconfig "github.com/to404hanga/submission_controller/config"
	"github.com/to404hanga/submission_controller/job"
	"github.com/to404hanga/submission_controller/job/cleaner"
	"github.com/to404hanga/submission_controller/repository"
	"gorm.io/gorm"
)

func InitUploadCleaner(db *gorm.DB, l loggerv2.Logger) *job.JobConfig {
	var cfg config.UploadCleanerConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal upload cleaner config fail, err: %v", err)
	}
	if err := commonconfig.Validate(cfg); err != nil {
		log.Panicf("invalid upload cleaner config: %v", err)
	}
	var storageCfg commonconfig.StorageConfig
	if err := viper.UnmarshalKey(storageCfg.Key(), &storageCfg); err != nil {
		log.Panicf("unmarshal storage config fail, err: %v", err)
	}
	var pipelineCfg commonconfig.PipelineConfig
	if err := viper.UnmarshalKey(pipelineCfg.Key(), &pipelineCfg); err != nil {
		log.Panicf("unmarshal pipeline config fail, err: %v", err)
	}

	c := cleaner.NewUploadCleaner(repository.NewSubmissionRepository(db),
		storageCfg.Root,
		pipelineCfg.SampleAssignmentIDs,
		time.Duration(cfg.TimeRange)*24*time.Hour,
		l)
	return &job.JobConfig{
		Name:        "上传目录清理",
		CronExpr:    cfg.CronExpr,
		JobFunc:     c.RunCleanup,
		Description: "清理过期且不再被引用的上传解包目录",
		Enabled:     cfg.Enabled,
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
	}
}
