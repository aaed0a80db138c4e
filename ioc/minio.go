package ioc

import (
	"context"
	"log"
	"time"

	"github.com/spf13/viper"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/config"
	"github.com/to404hanga/submission_controller/pkg/minio"
)

func minioConfig() config.MinIOConfig {
	var cfg config.MinIOConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal minio config failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Panicf("invalid minio config: %v", err)
	}
	return cfg
}

// InitMinIO 未启用对象存储时返回 nil
func InitMinIO(l loggerv2.Logger) *minio.MinIOService {
	cfg := minioConfig()
	if !cfg.Enabled {
		return nil
	}
	svc := minio.NewMinIOService(l, cfg.Endpoint, cfg.UseSSL)
	if svc == nil {
		log.Panicf("create minio client failed, endpoint: %s", cfg.Endpoint)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.EnsureBucket(ctx, cfg.Bucket); err != nil {
		log.Panicf("ensure minio bucket failed: %v", err)
	}
	return svc
}
