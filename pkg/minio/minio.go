package minio

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

const (
	EnvMinIOAccessKeyID     = "MINIO_ACCESS_KEY_ID"
	EnvMinIOSecretAccessKey = "MINIO_SECRET_ACCESS_KEY"
)

const archiveContentType = "application/zip"

type MinIOService struct {
	client   *minio.Client
	log      loggerv2.Logger
	endpoint string
	useSSL   bool
}

func NewMinIOService(log loggerv2.Logger, endpoint string, useSSL bool) *MinIOService {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv(EnvMinIOAccessKeyID), os.Getenv(EnvMinIOSecretAccessKey), ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Error("Failed to create MinIO client", logger.Error(err))
		return nil
	}

	return &MinIOService{
		client:   client,
		log:      log,
		endpoint: endpoint,
		useSSL:   useSSL,
	}
}

// EnsureBucket bucket 不存在时创建
func (s *MinIOService) EnsureBucket(ctx context.Context, bucketName string) error {
	exists, err := s.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err = s.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to make bucket %s: %w", bucketName, err)
	}
	return nil
}

// UploadFile 上传本地文件
func (s *MinIOService) UploadFile(ctx context.Context, bucketName, objectKey, filePath string) error {
	_, err := s.client.FPutObject(ctx, bucketName, objectKey, filePath, minio.PutObjectOptions{
		ContentType: archiveContentType,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to upload object",
			logger.Error(err),
			logger.String("bucketName", bucketName),
			logger.String("objectKey", objectKey),
		)
		return fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}
	return nil
}

// DownloadFile 下载对象到本地文件
func (s *MinIOService) DownloadFile(ctx context.Context, bucketName, objectKey, filePath string) error {
	if err := s.client.FGetObject(ctx, bucketName, objectKey, filePath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("failed to download object %s: %w", objectKey, err)
	}
	return nil
}

// GetPresignedDownloadURL 获取预签名下载URL
func (s *MinIOService) GetPresignedDownloadURL(ctx context.Context, bucketName, objectKey string, durationSeconds int) (string, error) {
	expiration := time.Duration(durationSeconds) * time.Second

	presignedURL, err := s.client.PresignedGetObject(ctx, bucketName, objectKey, expiration, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return presignedURL.String(), nil
}

// ObjectExists 检查对象是否存在
func (s *MinIOService) ObjectExists(ctx context.Context, bucketName, objectKey string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucketName, objectKey, minio.StatObjectOptions{})
	if err != nil {
		// 检查是否是对象不存在的错误
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		s.log.ErrorContext(ctx, "Failed to check object existence",
			logger.Error(err),
			logger.String("bucketName", bucketName),
			logger.String("objectKey", objectKey),
		)
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	return true, nil
}

// DeleteObject 删除指定的对象
func (s *MinIOService) DeleteObject(ctx context.Context, bucketName, objectKey string) error {
	err := s.client.RemoveObject(ctx, bucketName, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to delete object",
			logger.Error(err),
			logger.String("bucketName", bucketName),
			logger.String("objectKey", objectKey),
		)
		return fmt.Errorf("failed to delete object %s: %w", objectKey, err)
	}

	s.log.InfoContext(ctx, "Successfully deleted object",
		logger.String("bucketName", bucketName),
		logger.String("objectKey", objectKey),
	)

	return nil
}
