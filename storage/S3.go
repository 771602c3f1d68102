package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const s3Scheme = "s3://"

// DefaultTimeout is the default time limit of a single S3 request
const DefaultTimeout = 30 * time.Second

// s3API is the subset of the S3 client used by an S3 store
type s3API interface {
	HeadBucket(context.Context, *s3.HeadBucketInput,
		...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(context.Context, *s3.PutObjectInput,
		...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(context.Context, *s3.GetObjectInput,
		...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 stores objects under a key prefix in an S3 bucket
type S3 struct {
	Bucket  string
	Prefix  string
	Timeout time.Duration

	client s3API
}

// NewS3 returns a new S3 store using the default AWS credential chain
func NewS3(ctx context.Context, bucket, prefix string) (*S3, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("newS3: could not load aws config: %w", err)
	}

	return newS3(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func newS3(client s3API, bucket, prefix string) *S3 {
	return &S3{
		Bucket:  bucket,
		Prefix:  strings.Trim(prefix, "/"),
		Timeout: DefaultTimeout,
		client:  client,
	}
}

// EnsureDir checks that the bucket exists and is reachable. S3 has
// no directories, so nothing is created.
func (s *S3) EnsureDir() error {
	ctx, cancel := s.context()
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.Bucket),
	})
	if err != nil {
		return fmt.Errorf("ensureDir: bucket %v: %w", s.Bucket, err)
	}
	return nil
}

// Put uploads data to the named key, replacing any existing object
func (s *S3) Put(name string, data []byte) error {
	ctx, cancel := s.context()
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put: %v: %w", s.Location(name), err)
	}
	return nil
}

// Get downloads the object stored under the named key
func (s *S3) Get(name string) ([]byte, error) {
	ctx, cancel := s.context()
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.key(name)),
	})
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return nil, fmt.Errorf("get: %v: %w", s.Location(name), ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("get: %v: %w", s.Location(name), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("get: %v: %w", s.Location(name), err)
	}
	return data, nil
}

// Location returns the s3:// URI of the named object
func (s *S3) Location(name string) string {
	return s3Scheme + path.Join(s.Bucket, s.key(name))
}

func (s *S3) String() string {
	return s3Scheme + path.Join(s.Bucket, s.Prefix)
}

func (s *S3) key(name string) string {
	if s.Prefix == "" {
		return name
	}
	return s.Prefix + "/" + name
}

func (s *S3) context() (context.Context, context.CancelFunc) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

// parseS3URI splits an s3://bucket/prefix URI into its bucket and
// prefix
func parseS3URI(uri string) (string, string, error) {
	rest := strings.TrimPrefix(uri, s3Scheme)
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("parseS3URI: no bucket in %q", uri)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}
