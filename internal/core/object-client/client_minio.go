package objectclient

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	cfg "github.com/markdave123-py/baboon-api/internal/config"
	"github.com/markdave123-py/baboon-api/internal/core"
	"github.com/markdave123-py/baboon-api/internal/logging"
	"github.com/markdave123-py/baboon-api/internal/models"
)

// MinioClient implements core.ObjectClient with minio-go. It works against
// MinIO as well as any other S3-compatible provider.
type MinioClient struct {
	client *minio.Client
	bucket string
	cdn    string
	log    logging.Logger
}

func NewMinioClient(ctx context.Context, c *cfg.Config, log logging.Logger) (core.ObjectClient, error) {
	if c.BucketKey == "" || c.BucketSecret == "" {
		return nil, fmt.Errorf("bucket credentials not set")
	}
	if c.BucketName == "" {
		return nil, fmt.Errorf("bucket name not set")
	}

	client, err := minio.New(minioHost(c.BucketEndpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(c.BucketKey, c.BucketSecret, ""),
		Secure: c.BucketUseSSL,
		Region: c.BucketRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	log = log.With("driver", "minio")
	log.Info(ctx, "minio object client ready", "bucket", c.BucketName, "endpoint", c.BucketEndpoint)

	return &MinioClient{client: client, bucket: c.BucketName, cdn: c.BucketCDNEndpoint, log: log}, nil
}

// minioHost strips a scheme from the endpoint; minio.New wants host[:port].
func minioHost(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		return u.Host
	}
	return strings.TrimRight(endpoint, "/")
}

func (m *MinioClient) List(ctx context.Context, scope string) ([]models.StoredObject, error) {
	ctxList, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var objs []models.StoredObject
	for info := range m.client.ListObjects(ctxList, m.bucket, minio.ListObjectsOptions{
		Prefix:    scopePrefix(scope),
		Recursive: false,
		MaxKeys:   1000,
	}) {
		if info.Err != nil {
			return nil, core.E(core.KindStoreUnavailable, "minio list", info.Err)
		}
		if !directChild(scope, info.Key) {
			continue
		}
		objs = append(objs, models.StoredObject{
			Key:          info.Key,
			LastModified: info.LastModified,
			Size:         info.Size,
		})
		// one page, like the S3 driver
		if len(objs) == 1000 {
			m.log.Warn(ctx, "listing truncated, using first page only", "scope", scope)
			break
		}
	}
	return objs, nil
}

func (m *MinioClient) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err := m.client.PutObject(ctxUpload, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"x-amz-acl": "public-read"},
	})
	if err != nil {
		return "", core.E(core.KindUploadFailed, "minio put", fmt.Errorf("key=%s: %w", key, err))
	}
	return m.PublicURL(key), nil
}

func (m *MinioClient) DeleteAll(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	ctxDel, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objectsCh <- minio.ObjectInfo{Key: k}
	}
	close(objectsCh)

	var failed []string
	for rErr := range m.client.RemoveObjects(ctxDel, m.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		failed = append(failed, fmt.Sprintf("%s (%v)", rErr.ObjectName, rErr.Err))
	}
	if len(failed) > 0 {
		return core.E(core.KindDeleteFailed, "minio delete", partialDeleteError(failed, len(keys)))
	}
	return nil
}

func (m *MinioClient) HeadProbe(ctx context.Context) error {
	ctxHead, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := m.client.BucketExists(ctxHead, m.bucket)
	if err != nil {
		return core.E(core.KindStoreUnavailable, "minio bucket exists", err)
	}
	if !exists {
		return core.Errorf(core.KindStoreUnavailable, "minio bucket exists", "bucket %q not found", m.bucket)
	}
	return nil
}

func (m *MinioClient) PublicURL(key string) string {
	return publicURL(m.cdn, key)
}

var _ core.ObjectClient = (*MinioClient)(nil)
