// Package storage uploads ledger exports to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/backoffice/ledger/internal/infrastructure/config"
	"go.uber.org/zap"
)

const defaultLinkTTL = 24 * time.Hour

// ExportBucket writes export files under a key prefix of one bucket on AWS
// S3 or a compatible server such as MinIO.
type ExportBucket struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
	linkTTL time.Duration
	logger  *zap.Logger
}

// Link is a presigned download URL.
type Link struct {
	URL       string
	ExpiresAt time.Time
}

type Option func(*ExportBucket)

func WithLogger(logger *zap.Logger) Option {
	return func(b *ExportBucket) { b.logger = logger }
}

// WithLinkTTL sets the validity used when Link is called without one.
func WithLinkTTL(ttl time.Duration) Option {
	return func(b *ExportBucket) { b.linkTTL = ttl }
}

// NewExportBucket builds the S3 client from cfg. Static credentials are used
// when both keys are set; with neither, the SDK's default chain applies.
func NewExportBucket(ctx context.Context, cfg config.StorageConfig, opts ...Option) (*ExportBucket, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage.bucket is required")
	}
	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		return nil, errors.New("storage.access_key and storage.secret_key must be set together")
	}
	endpoint, err := endpointURL(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	b := &ExportBucket{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		linkTTL: defaultLinkTTL,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// endpointURL adds a scheme to a bare host:port. Empty keeps the AWS resolver.
func endpointURL(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		return "", nil
	}
	if !strings.Contains(endpoint, "://") {
		scheme := "http://"
		if useSSL {
			scheme = "https://"
		}
		endpoint = scheme + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid storage.endpoint %q", endpoint)
	}
	return endpoint, nil
}

// Bucket returns the bucket name.
func (b *ExportBucket) Bucket() string { return b.bucket }

// Ensure creates the bucket when it does not exist yet.
func (b *ExportBucket) Ensure(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("check bucket %s: %w", b.bucket, err)
	}

	b.logger.Info("Creating export bucket", zap.String("bucket", b.bucket))
	_, err = b.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(b.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("create bucket %s: %w", b.bucket, err)
	}
	return nil
}

// Put uploads data as prefix+name and returns the object key. Browsers
// downloading the object save it under name.
func (b *ExportBucket) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if name == "" || strings.HasSuffix(name, "/") {
		return "", fmt.Errorf("invalid export name %q", name)
	}
	key := b.prefix + name

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(b.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(data),
		ContentLength:      aws.Int64(int64(len(data))),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(name)})),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	b.logger.Info("Export uploaded", zap.String("bucket", b.bucket), zap.String("key", key), zap.Int("bytes", len(data)))
	return key, nil
}

// Link presigns a GET for key. A non-positive ttl uses the bucket default.
func (b *ExportBucket) Link(ctx context.Context, key string, ttl time.Duration) (Link, error) {
	if key == "" {
		return Link{}, errors.New("object key is required")
	}
	if ttl <= 0 {
		ttl = b.linkTTL
	}
	req, err := b.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return Link{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return Link{URL: req.URL, ExpiresAt: time.Now().Add(ttl)}, nil
}
