package ioc

import (
	"log"
	"time"

	"github.com/spf13/viper"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/cmd/cronjob/config"
	commonconfig "github.com/to404hanga/submission_controller/config"
	"github.com/to404hanga/submission_controller/job"
	"github.com/to404hanga/submission_controller/job/refresher"
	"github.com/to404hanga/submission_controller/service"
)

func InitGitRefresher(gitSvc service.GitSubmissionService, l loggerv2.Logger) *job.JobConfig {
	var cfg config.GitRefresherConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal git refresher config fail, err: %v", err)
	}
	if err := commonconfig.Validate(cfg); err != nil {
		log.Panicf("invalid git refresher config: %v", err)
	}

	r := refresher.NewGitRefresher(gitSvc, l)
	return &job.JobConfig{
		Name:        "git 仓库同步",
		CronExpr:    cfg.CronExpr,
		JobFunc:     r.Run,
		Description: "拉取已连接 git 仓库的最新提交",
		Enabled:     cfg.Enabled,
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
	}
}
