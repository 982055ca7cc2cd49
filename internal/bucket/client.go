// Package bucket manages S3 buckets and exposes empty buckets to the
// prune engine.
// ABOUTME: Wraps aws-sdk-go-v2 S3 behind a narrow API so tests can fake it.
package bucket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kstenerud/devcli/internal/config"
)

// DefaultRegion is used when neither config nor the AWS environment name one.
const DefaultRegion = "us-east-1"

// API is the subset of the S3 client devcli uses.
type API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
}

// Compile-time check: *s3.Client satisfies API.
var _ API = (*s3.Client)(nil)

// NewClient builds an S3 client from cfg, falling back to the standard
// AWS environment, shared config and credential files for unset fields.
func NewClient(ctx context.Context, cfg config.AWSConfig) (*s3.Client, string, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("load AWS config: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = DefaultRegion
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return client, awsCfg.Region, nil
}

// New connects to S3 using cfg. It does not contact the service.
func New(ctx context.Context, cfg config.AWSConfig, logger *slog.Logger) (*Backend, error) {
	client, region, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewBackend(client, region, logger), nil
}
