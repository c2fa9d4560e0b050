package modules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads chunks from an S3 bucket.
//
// Example usage:
//
//	store, err := modules.NewS3StoreFromEnv(ctx, "my-bucket", "build/server/", "eu-west-1")
//	loader := modules.NewLoader(store, m.MimeTypes)
type S3Store struct {
	client  S3API
	bucket  string
	prefix  string
	timeout time.Duration
}

// NewS3Store returns a store reading s3://bucket/prefix+name.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// NewS3StoreFromEnv builds an S3 client from the default AWS credential
// chain (environment, shared config, instance role).
func NewS3StoreFromEnv(ctx context.Context, bucket, prefix, region string) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3Store(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// WithTimeout bounds each GetObject call. Zero means no bound.
func (s *S3Store) WithTimeout(d time.Duration) *S3Store {
	s.timeout = d
	return s
}

// Key returns the object key for a chunk name.
func (s *S3Store) Key(name string) string {
	return s.prefix + name
}

// Fetch implements Store.
func (s *S3Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(name)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotExist, s.bucket, s.Key(name))
		}
		return nil, fmt.Errorf("s3 get %s: %w", s.Key(name), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", s.Key(name), err)
	}
	return data, nil
}
