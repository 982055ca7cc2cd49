package bucket

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	cerrdefs "github.com/containerd/errdefs"

	"github.com/kstenerud/devcli/internal/prune"
)

const filterPrefix = "prefix"

// Bucket describes an S3 bucket.
type Bucket struct {
	Name    string    `json:"name"`
	Region  string    `json:"region,omitempty"`
	Created time.Time `json:"created"`
}

// Object describes an object inside a bucket.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Backend manages buckets and implements prune.Backend for empty buckets.
type Backend struct {
	api    API
	region string
	logger *slog.Logger
}

// Compile-time check.
var _ prune.Backend = (*Backend)(nil)

// NewBackend wraps api. region is the client's default region.
func NewBackend(api API, region string, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{api: api, region: region, logger: logger}
}

// Region is the region the client resolved from config, profile or
// environment. New buckets go there unless told otherwise.
func (b *Backend) Region() string { return b.region }

// Close is a no-op; the S3 client holds no connections that need releasing.
func (b *Backend) Close() error { return nil }

// Ping verifies credentials and reachability with a one-bucket listing.
func (b *Backend) Ping(ctx context.Context) error {
	_, err := b.api.ListBuckets(ctx, &s3.ListBucketsInput{MaxBuckets: aws.Int32(1)})
	if err != nil {
		return fmt.Errorf("S3 is not reachable: %w", wrapError(err))
	}
	return nil
}

// Classes implements prune.Backend.
func (b *Backend) Classes() []prune.Class {
	return []prune.Class{prune.ClassBuckets}
}

// Buckets lists every bucket the credentials can see, oldest first as S3
// returns them.
func (b *Backend) Buckets(ctx context.Context) ([]Bucket, error) {
	var out []Bucket
	input := &s3.ListBucketsInput{}
	for {
		resp, err := b.api.ListBuckets(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list buckets: %w", wrapError(err))
		}
		for _, bkt := range resp.Buckets {
			if bkt.Name == nil {
				continue
			}
			out = append(out, toBucket(bkt))
		}
		if aws.ToString(resp.ContinuationToken) == "" {
			return out, nil
		}
		input.ContinuationToken = resp.ContinuationToken
	}
}

// Objects lists every object in bucket.
func (b *Backend) Objects(ctx context.Context, bucket string) ([]Object, error) {
	var out []Object
	p := s3.NewListObjectsV2Paginator(b.api, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects in %s: %w", bucket, wrapError(err))
		}
		for _, obj := range page.Contents {
			out = append(out, Object{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}

// Create creates bucket in region (the client's region when empty).
func (b *Backend) Create(ctx context.Context, bucket, region string) error {
	if region == "" {
		region = b.region
	}
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	// us-east-1 rejects an explicit location constraint.
	if region != "" && region != DefaultRegion {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(region),
		}
	}
	if _, err := b.api.CreateBucket(ctx, input, withRegion(region)); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, wrapError(err))
	}
	b.logger.Debug("bucket created", "bucket", bucket, "region", region)
	return nil
}

// Remove deletes bucket, which must be empty.
func (b *Backend) Remove(ctx context.Context, bucket, region string) error {
	if _, err := b.api.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)}, withRegion(region)); err != nil {
		return fmt.Errorf("delete bucket %s: %w", bucket, wrapError(err))
	}
	b.logger.Debug("bucket deleted", "bucket", bucket)
	return nil
}

// List implements prune.Backend: empty buckets, optionally restricted to
// names starting with the prefix filter.
func (b *Backend) List(ctx context.Context, class prune.Class, filter prune.Filter) ([]prune.Candidate, error) {
	if class != prune.ClassBuckets {
		return nil, fmt.Errorf("%w: %s", prune.ErrUnsupportedClass, class)
	}
	prefix, _ := filter.Get(filterPrefix)
	if extra := filter.Without(filterPrefix); len(extra) > 0 {
		return nil, fmt.Errorf("%w: unsupported bucket filter %s", cerrdefs.ErrInvalidArgument, extra)
	}

	buckets, err := b.Buckets(ctx)
	if err != nil {
		return nil, err
	}

	var out []prune.Candidate
	for _, bkt := range buckets {
		if !strings.HasPrefix(bkt.Name, prefix) {
			continue
		}
		empty, err := b.isEmpty(ctx, bkt)
		switch {
		case cerrdefs.IsNotFound(err):
			b.logger.Debug("bucket disappeared during listing", "bucket", bkt.Name)
			continue
		case cerrdefs.IsPermissionDenied(err):
			b.logger.Warn("skipping bucket that cannot be inspected", "bucket", bkt.Name, "error", err)
			continue
		case err != nil:
			return nil, err
		}
		if !empty {
			continue
		}
		out = append(out, prune.Candidate{
			ID:    bkt.Name,
			Class: prune.ClassBuckets,
			Name:  bkt.Name,
			Metadata: map[string]string{
				"region":  bkt.Region,
				"created": bkt.Created.UTC().Format(time.RFC3339),
			},
		})
	}
	b.logger.Debug("listed prune candidates", "class", class, "prefix", prefix, "count", len(out))
	return out, nil
}

func (b *Backend) isEmpty(ctx context.Context, bkt Bucket) (bool, error) {
	resp, err := b.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bkt.Name),
		MaxKeys: aws.Int32(1),
	}, withRegion(bkt.Region))
	if err != nil {
		return false, fmt.Errorf("inspect bucket %s: %w", bkt.Name, wrapError(err))
	}
	return len(resp.Contents) == 0, nil
}

// Delete implements prune.Backend. A bucket that gained objects since
// listing fails with BucketNotEmpty, which classifies as busy.
func (b *Backend) Delete(ctx context.Context, res prune.Candidate) error {
	if res.Class != prune.ClassBuckets {
		return fmt.Errorf("%w: %s", prune.ErrUnsupportedClass, res.Class)
	}
	return b.Remove(ctx, res.ID, res.Metadata["region"])
}

func toBucket(bkt s3types.Bucket) Bucket {
	return Bucket{
		Name:    aws.ToString(bkt.Name),
		Region:  aws.ToString(bkt.BucketRegion),
		Created: aws.ToTime(bkt.CreationDate),
	}
}

// withRegion targets a bucket's home region; S3 redirects otherwise.
func withRegion(region string) func(*s3.Options) {
	return func(o *s3.Options) {
		if region != "" {
			o.Region = region
		}
	}
}
