package artifacts

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	data, _ := io.ReadAll(params.Body)
	f.body = string(data)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{ETag: aws.String(`"etag"`)}, nil
}

func TestS3PublisherPutsUnderPrefix(t *testing.T) {
	client := &fakeS3{}
	p := NewS3PublisherWithClient(client, "bucket", "/live/")

	if err := p.Publish(context.Background(), "/scores.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if aws.ToString(client.input.Bucket) != "bucket" || aws.ToString(client.input.Key) != "live/scores.json" {
		t.Fatalf("unexpected target %s/%s", aws.ToString(client.input.Bucket), aws.ToString(client.input.Key))
	}
	if aws.ToString(client.input.ContentType) != "application/json" || client.body != `{"a":1}` {
		t.Fatalf("unexpected object %+v body=%s", client.input, client.body)
	}
}

func TestS3PublisherWrapsErrors(t *testing.T) {
	boom := errors.New("denied")
	p := NewS3PublisherWithClient(&fakeS3{err: boom}, "bucket", "")
	if err := p.Publish(context.Background(), "scores.json", nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if got := p.ObjectKey("scores.json"); got != "scores.json" {
		t.Fatalf("expected bare key without prefix, got %s", got)
	}
}

func TestNewS3PublisherRequiresBucket(t *testing.T) {
	if _, err := NewS3Publisher(context.Background(), "", ""); err == nil {
		t.Fatalf("expected error without bucket")
	}
}
