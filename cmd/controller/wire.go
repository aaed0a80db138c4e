//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/to404hanga/submission_controller/cmd/controller/ioc"
	commonioc "github.com/to404hanga/submission_controller/ioc"
	"github.com/to404hanga/submission_controller/service"
	"github.com/to404hanga/submission_controller/service/exporter/factory"
	"github.com/to404hanga/submission_controller/service/report"
	"github.com/to404hanga/submission_controller/service/storage"
	"github.com/to404hanga/submission_controller/web"
)

func BuildDependency() *App {
	wire.Build(
		commonioc.InitDB,
		commonioc.InitLogger,
		commonioc.InitJWTHandler,
		commonioc.InitRedis,
		commonioc.InitMinIO,
		commonioc.InitSaramaClient,
		commonioc.InitProducer,
		commonioc.InitArchiver,
		commonioc.InitLocalStorage,
		commonioc.InitMavenizer,
		commonioc.InitGitClient,
		commonioc.InitExecContext,
		commonioc.InitFacility,
		wire.Bind(new(storage.Storage), new(*storage.LocalStorage)),

		report.NewMavenReportBuilder,
		wire.Bind(new(report.Builder), new(*report.MavenReportBuilder)),
		factory.NewExporterFactory,

		commonioc.InitRankingService,
		wire.Bind(new(service.RankingService), new(*service.RankingServiceImpl)),
		wire.Bind(new(service.LeaderboardCache), new(*service.RankingServiceImpl)),
		commonioc.InitSubmissionService,
		commonioc.InitFinalService,
		service.NewAssignmentService,
		service.NewGitSubmissionService,
		commonioc.InitResultConsumer,

		commonioc.InitSubmissionHandler,
		web.NewGitSubmissionHandler,
		web.NewAssignmentHandler,
		web.NewFinalHandler,
		web.NewRankingHandler,
		web.NewUserHandler,
		web.NewHealthHandler,

		ioc.InitGinServer,
		NewApp,
	)
	return &App{}
}
