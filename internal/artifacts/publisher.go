package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Publisher uploads a rendered artifact under a key.
type Publisher interface {
	Publish(ctx context.Context, key string, data []byte) error
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher writes artifacts to an S3 bucket.
type S3Publisher struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewS3Publisher builds a publisher using the default AWS credential chain.
func NewS3Publisher(ctx context.Context, bucket, prefix string) (*S3Publisher, error) {
	if bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3PublisherWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3PublisherWithClient wraps an existing client.
func NewS3PublisherWithClient(client putObjectAPI, bucket, prefix string) *S3Publisher {
	return &S3Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Publish uploads data as JSON under prefix/key.
func (p *S3Publisher) Publish(ctx context.Context, key string, data []byte) error {
	if p == nil || p.client == nil {
		return errors.New("s3 publisher not configured")
	}
	objectKey := p.ObjectKey(key)
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(objectKey),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("no-cache"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", p.bucket, objectKey, err)
	}
	return nil
}

// ObjectKey returns the bucket key used for key.
func (p *S3Publisher) ObjectKey(key string) string {
	key = strings.TrimLeft(key, "/")
	if p.prefix == "" {
		return key
	}
	return path.Join(p.prefix, key)
}
