package ioc

import (
	"log"

	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/job"
	"github.com/to404hanga/submission_controller/service"
	"gorm.io/gorm"
)

func InitScheduler(l loggerv2.Logger, db *gorm.DB, gitSvc service.GitSubmissionService) *job.CronScheduler {
	scheduler := job.NewCronScheduler(l)

	for _, cfg := range []*job.JobConfig{
		InitUploadCleaner(db, l),
		InitGitRefresher(gitSvc, l),
	} {
		if err := scheduler.AddJob(cfg); err != nil {
			log.Panicf("add cron job failed: %v", err)
		}
	}
	return scheduler
}
