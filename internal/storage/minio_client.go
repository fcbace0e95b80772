package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"tweetline/internal/apperror"
	"tweetline/internal/config"
	"tweetline/internal/models"
)

// Storage is the media collaborator: it stores raw bytes under a namespace and
// deletes them again by public id.
type Storage interface {
	Upload(ctx context.Context, namespace string, data []byte) (*models.Media, error)
	Destroy(ctx context.Context, publicID string) error
}

// objectAPI is the part of *minio.Client the media store uses.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type MinIOClient struct {
	client    objectAPI
	bucket    string
	publicURL string
	timeout   time.Duration
}

func NewMinIOClient(ctx context.Context, cfg *config.Config) (*MinIOClient, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
		Region: cfg.MinIO.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.MediaTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinIO.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinIO.BucketName, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinIO.BucketName, minio.MakeBucketOptions{Region: cfg.MinIO.Region})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinIO.BucketName, err)
		}
		log.Printf("created bucket %s", cfg.MinIO.BucketName)
	}

	return newMinIOClient(client, cfg.MinIO.BucketName, cfg.MinIO.PublicURL, cfg.MediaTimeout), nil
}

func newMinIOClient(client objectAPI, bucket, publicURL string, timeout time.Duration) *MinIOClient {
	return &MinIOClient{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		timeout:   timeout,
	}
}

func (m *MinIOClient) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}

// objectName lays objects out as namespace/yyyy/mm/uuid.ext.
func objectName(namespace string, detected *mimetype.MIME, now time.Time) string {
	return fmt.Sprintf("%s/%d/%02d/%s%s",
		strings.Trim(namespace, "/"),
		now.Year(),
		now.Month(),
		uuid.New().String(),
		detected.Extension())
}

func (m *MinIOClient) Upload(ctx context.Context, namespace string, data []byte) (*models.Media, error) {
	if len(data) == 0 {
		return nil, apperror.New(apperror.InvalidArgument, "empty media upload")
	}

	ctx, cancel := m.bound(ctx)
	defer cancel()

	detected := mimetype.Detect(data)
	now := time.Now()
	name := objectName(namespace, detected, now)

	_, err := m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType: detected.String(),
			UserMetadata: map[string]string{
				"namespace":   namespace,
				"uploaded-at": now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return nil, apperror.FromStore(err, "failed to upload media")
	}

	return &models.Media{
		PublicID: name,
		URL:      fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, name),
	}, nil
}

func (m *MinIOClient) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}

	ctx, cancel := m.bound(ctx)
	defer cancel()

	err := m.client.RemoveObject(ctx, m.bucket, publicID, minio.RemoveObjectOptions{GovernanceBypass: true})
	if err != nil {
		return apperror.FromStore(err, "failed to delete media %s", publicID)
	}
	return nil
}
