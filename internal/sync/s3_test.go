package sync

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3DestinationWrite(t *testing.T) {
	fp := &fakePutter{}
	dest := &S3Destination{client: fp, bucket: "wbs-exports", key: "wbs/export.jsonl"}

	data := []byte(`{"type":"header"}` + "\n")
	if err := dest.Write(context.Background(), data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if aws.ToString(fp.in.Bucket) != "wbs-exports" || aws.ToString(fp.in.Key) != "wbs/export.jsonl" {
		t.Fatalf("put %s/%s", aws.ToString(fp.in.Bucket), aws.ToString(fp.in.Key))
	}
	if aws.ToString(fp.in.ContentType) != "application/x-ndjson" {
		t.Fatalf("content type = %q", aws.ToString(fp.in.ContentType))
	}
	if string(fp.body) != string(data) {
		t.Fatalf("body = %q", fp.body)
	}
	if dest.String() != "s3://wbs-exports/wbs/export.jsonl" {
		t.Fatalf("String() = %q", dest.String())
	}
}

func TestS3DestinationWrite_Error(t *testing.T) {
	cause := errors.New("access denied")
	dest := &S3Destination{client: &fakePutter{err: cause}, bucket: "b", key: "k"}

	err := dest.Write(context.Background(), []byte("x"))
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}
