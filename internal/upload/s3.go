package upload

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds everything needed to talk to an S3-compatible object store.
//
// BaseEndpoint makes this work against MinIO (or any S3 clone) in local
// docker-compose setups: point it at http://localhost:9000 and use the MinIO
// root credentials. Leave it empty for real AWS S3.
type S3Config struct {
	Region       string
	Bucket       string
	AccessKey    string // MINIO_ROOT_USER when running against MinIO
	SecretKey    string // MINIO_ROOT_PASSWORD when running against MinIO
	BaseEndpoint string // custom endpoint; empty for AWS
	PublicURL    string // public prefix for stored objects, e.g. the CDN or MinIO URL
}

// S3Uploader stores images in an S3 bucket.
type S3Uploader struct {
	client *s3.Client
	cfg    S3Config
}

// NewS3Uploader builds the S3 client from static credentials.
//
// Static credentials (not the default chain) because the deployment passes
// them through environment variables in both the MinIO and AWS cases.
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"", // session token not needed
		)))
	if err != nil {
		return nil, fmt.Errorf("upload: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			// Path-style addressing: MinIO serves buckets at
			// http://host/bucket/key, not bucket.host/key.
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{client: client, cfg: cfg}, nil
}

// Upload puts the image into the bucket and returns its public URL.
func (u *S3Uploader) Upload(ctx context.Context, userID, filename string, r io.Reader) (string, error) {
	key := storageKey(userID, filename)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return "", fmt.Errorf("upload: putting object %s: %w", key, err)
	}

	return strings.TrimSuffix(u.cfg.PublicURL, "/") + "/" + key, nil
}
