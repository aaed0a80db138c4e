//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/to404hanga/submission_controller/cmd/cronjob/ioc"
	commonioc "github.com/to404hanga/submission_controller/ioc"
	"github.com/to404hanga/submission_controller/job"
	"github.com/to404hanga/submission_controller/service"
	"github.com/to404hanga/submission_controller/service/storage"
)

func InitScheduler() *job.CronScheduler {
	wire.Build(
		commonioc.InitDB,
		commonioc.InitRedis,
		commonioc.InitLogger,
		commonioc.InitMinIO,
		commonioc.InitArchiver,
		commonioc.InitLocalStorage,
		commonioc.InitGitClient,
		wire.Bind(new(storage.Storage), new(*storage.LocalStorage)),
		service.NewGitSubmissionService,
		ioc.InitScheduler,
	)
	return &job.CronScheduler{}
}
