package ioc

import (
	"log"

	"github.com/spf13/viper"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/config"
	"github.com/to404hanga/submission_controller/pkg/minio"
	"github.com/to404hanga/submission_controller/service"
	"github.com/to404hanga/submission_controller/service/storage"
	"github.com/to404hanga/submission_controller/web"
)

func InitSubmissionHandler(submissionSvc service.SubmissionService, store *storage.LocalStorage, minioSvc *minio.MinIOService, l loggerv2.Logger) *web.SubmissionHandler {
	var ginCfg config.GinConfig
	if err := viper.UnmarshalKey(ginCfg.Key(), &ginCfg); err != nil {
		log.Panicf("unmarshal gin config failed: %v", err)
	}
	if ginCfg.InternalToken == "" {
		l.Warn("gin.internalToken is empty, build callbacks over HTTP are rejected")
	}
	cfg := minioConfig()
	return web.NewSubmissionHandler(submissionSvc, store, minioSvc, l,
		cfg.Bucket,
		cfg.DownloadDurationSeconds,
		ginCfg.InternalToken)
}
