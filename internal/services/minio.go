package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioService wraps the object store holding uploaded binaries.
type MinioService struct {
	Client     *minio.Client
	BucketName string
}

// NewMinioService connects to MinIO and creates the bucket if it doesn't
// exist.
func NewMinioService(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %v", err)
	}

	if !exists {
		err = client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %v", err)
		}
		zap.S().Infof("Created bucket: %s", bucket)
	}

	zap.S().Info("Connected to MinIO successfully")
	return &MinioService{
		Client:     client,
		BucketName: bucket,
	}, nil
}

// CheckConnection is used by the health endpoint.
func (m *MinioService) CheckConnection() error {
	if m == nil || m.Client == nil {
		return fmt.Errorf("minio service not initialized")
	}
	_, err := m.Client.BucketExists(context.Background(), m.BucketName)
	return err
}

// Upload streams an object into the bucket.
func (m *MinioService) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := m.Client.PutObject(
		ctx,
		m.BucketName,
		objectName,
		reader,
		size,
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	return err
}

// Download copies an object to a local path (used by the virus scanner).
func (m *MinioService) Download(ctx context.Context, objectName, localFilePath string) error {
	return m.Client.FGetObject(ctx, m.BucketName, objectName, localFilePath, minio.GetObjectOptions{})
}

// PresignedGet issues a read-only URL for objectName that stops working
// after ttl. The short validity window bounds the blast radius of a
// leaked URL.
func (m *MinioService) PresignedGet(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	u, err := m.Client.PresignedGetObject(ctx, m.BucketName, objectName, ttl, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Remove deletes an object. An object that is already gone counts as
// success, so destroy stays idempotent.
func (m *MinioService) Remove(ctx context.Context, objectName string) error {
	err := m.Client.RemoveObject(ctx, m.BucketName, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil
		}
	}
	return err
}

// GetContentType maps a file extension to the content type stored with
// the object.
func GetContentType(extension string) string {
	switch extension {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
