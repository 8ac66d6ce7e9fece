package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"dzika/config"
	"dzika/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio 初始化 MinIO 客户端
func InitMinio(cfg *config.Config) error {
	if cfg.MinioEndpoint == "" {
		logger.Info("MinIO not configured, download URLs fall back to stored audio URLs")
		return nil
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// 检查存储桶是否存在
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created MinIO bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("connected to MinIO", logger.String("endpoint", cfg.MinioEndpoint))
	return nil
}

// Enabled reports whether object storage is configured.
func Enabled() bool {
	return minioClient != nil
}

// PresignedDownloadURL generates a time-limited download URL for an object,
// with a content-disposition forcing the given filename.
func PresignedDownloadURL(ctx context.Context, bucket, objectKey string, ttl time.Duration, filename string) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("MinIO client not initialized")
	}

	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	u, err := minioClient.PresignedGetObject(ctx, bucket, objectKey, ttl, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to presign download URL for %s: %w", objectKey, err)
	}
	return u.String(), nil
}
