// Package storage presigns product image URLs from an S3-compatible bucket.
package storage

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vitrine-io/vitrine/internal/config"
)

const urlExpiry = 24 * time.Hour

// ImageStore presigns time-limited GET URLs for product image object keys.
type ImageStore struct {
	presign *s3.PresignClient
	bucket  string
}

// NewImageStore creates an ImageStore from the S3 section of the config.
// Returns nil when no bucket is configured; callers then pass image keys
// through untouched.
func NewImageStore(cfg *config.Config) (*ImageStore, error) {
	if cfg.S3.Bucket == "" {
		return nil, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:           cfg.S3.Endpoint,
			SigningRegion: cfg.S3.Region,
		}, nil
	})

	awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
		awsConfig.WithEndpointResolverWithOptions(resolver),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, err
	}

	log.Printf("S3 image store initialized for bucket: %s, region: %s", cfg.S3.Bucket, cfg.S3.Region)

	return &ImageStore{
		presign: s3.NewPresignClient(s3.NewFromConfig(awsCfg)),
		bucket:  cfg.S3.Bucket,
	}, nil
}

// ImageURL returns a presigned GET URL for the given object key.
func (is *ImageStore) ImageURL(ctx context.Context, key string) (string, error) {
	req, err := is.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &is.bucket,
		Key:    &key,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = urlExpiry
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
