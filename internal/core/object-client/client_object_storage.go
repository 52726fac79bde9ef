package objectclient

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	cfg "github.com/markdave123-py/baboon-api/internal/config"
	"github.com/markdave123-py/baboon-api/internal/core"
	"github.com/markdave123-py/baboon-api/internal/logging"
	"github.com/markdave123-py/baboon-api/internal/models"
)

// S3Client talks to any S3-compatible bucket (AWS, DigitalOcean Spaces, ...).
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	cdn      string
	log      logging.Logger
}

func NewS3Client(ctx context.Context, cfg *cfg.Config, log logging.Logger) (core.ObjectClient, error) {
	if cfg.BucketKey == "" || cfg.BucketSecret == "" {
		return nil, fmt.Errorf("bucket credentials not set")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("bucket name not set")
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(cfg.BucketRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.BucketKey, cfg.BucketSecret, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BucketEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BucketEndpoint)
		}
		o.UsePathStyle = true
	})
	log = log.With("driver", "s3")
	log.Info(ctx, "s3 object client ready", "bucket", cfg.BucketName, "endpoint", cfg.BucketEndpoint)

	return &S3Client{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.BucketName,
		cdn:      cfg.BucketCDNEndpoint,
		log:      log,
	}, nil
}

func (c *S3Client) List(ctx context.Context, scope string) ([]models.StoredObject, error) {
	ctxList, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out, err := c.client.ListObjectsV2(ctxList, &s3.ListObjectsV2Input{
		Bucket:    aws.String(c.bucket),
		Prefix:    aws.String(scopePrefix(scope)),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return nil, core.E(core.KindStoreUnavailable, "s3 list", err)
	}
	if aws.ToBool(out.IsTruncated) {
		c.log.Warn(ctx, "listing truncated, using first page only", "scope", scope, "count", len(out.Contents))
	}

	objs := make([]models.StoredObject, 0, len(out.Contents))
	for _, item := range out.Contents {
		key := aws.ToString(item.Key)
		if !directChild(scope, key) {
			continue
		}
		objs = append(objs, models.StoredObject{
			Key:          key,
			LastModified: aws.ToTime(item.LastModified),
			Size:         aws.ToInt64(item.Size),
		})
	}
	return objs, nil
}

// Put uploads data with a public-read ACL and returns the CDN URL.
func (c *S3Client) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	}

	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if _, err := c.uploader.Upload(ctxUpload, input); err != nil {
		return "", core.E(core.KindUploadFailed, "s3 upload", fmt.Errorf("key=%s: %w", key, err))
	}
	return c.PublicURL(key), nil
}

func (c *S3Client) DeleteAll(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	ctxDel, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	ids := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
	}

	out, err := c.client.DeleteObjects(ctxDel, &s3.DeleteObjectsInput{
		Bucket: aws.String(c.bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return core.E(core.KindDeleteFailed, "s3 delete", err)
	}
	if len(out.Errors) > 0 {
		failed := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			failed = append(failed, fmt.Sprintf("%s (%s)", aws.ToString(e.Key), aws.ToString(e.Message)))
		}
		return core.E(core.KindDeleteFailed, "s3 delete", partialDeleteError(failed, len(keys)))
	}
	return nil
}

func (c *S3Client) HeadProbe(ctx context.Context) error {
	ctxHead, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := c.client.HeadBucket(ctxHead, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return core.E(core.KindStoreUnavailable, "s3 head bucket", err)
	}
	return nil
}

func (c *S3Client) PublicURL(key string) string {
	return publicURL(c.cdn, key)
}

var _ core.ObjectClient = (*S3Client)(nil)
