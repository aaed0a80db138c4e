package ioc

import (
	"log"

	"github.com/spf13/viper"
	gozip "github.com/to404hanga/pkg404/gotools/zip"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/config"
	"github.com/to404hanga/submission_controller/pkg/archive"
	"github.com/to404hanga/submission_controller/pkg/minio"
	"github.com/to404hanga/submission_controller/service/mavenizer"
	"github.com/to404hanga/submission_controller/service/storage"
)

func storageConfig() config.StorageConfig {
	var cfg config.StorageConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal storage config failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Panicf("invalid storage config: %v", err)
	}
	return cfg
}

func pipelineConfig() config.PipelineConfig {
	var cfg config.PipelineConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal pipeline config failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Panicf("invalid pipeline config: %v", err)
	}
	return cfg
}

func InitArchiver() archive.Service {
	cfg := storageConfig()
	return archive.NewZipService(cfg.MaxEntrySize, archive.WithEncryption(gozip.EncryptConfig{
		Password: cfg.ArchivePassword,
		Enc:      cfg.ArchiveEncryption,
	}))
}

// InitLocalStorage 启用对象存储时压缩包同时备份到 minio
func InitLocalStorage(archiver archive.Service, minioSvc *minio.MinIOService, l loggerv2.Logger) *storage.LocalStorage {
	cfg := storageConfig()
	if minioSvc == nil {
		return storage.NewLocalStorage(cfg.Root, archiver, nil, "", l)
	}
	return storage.NewLocalStorage(cfg.Root, archiver, minioSvc, minioConfig().Bucket, l)
}

func InitMavenizer(l loggerv2.Logger) *mavenizer.Mavenizer {
	return mavenizer.NewMavenizer(storageConfig().Root, pipelineConfig().SampleAssignmentIDs, l)
}
