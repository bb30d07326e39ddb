package sync

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Destination_Write(t *testing.T) {
	data := []byte(`{"version":"1","type":"header","owner":"2vxsx-fae","land_count":0}` + "\n")

	for _, tc := range []struct {
		name    string
		key     string
		wantKey string
	}{
		{"FixedKey", "landreg/portfolio.jsonl", "landreg/portfolio.jsonl"},
		{"OwnerKey", "landreg/{owner}/portfolio.jsonl", "landreg/2vxsx-fae/portfolio.jsonl"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeS3{}
			dest := &S3Destination{client: fake, bucket: "backups", key: tc.key}

			if err := dest.Write(context.Background(), data); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if got := aws.ToString(fake.in.Bucket); got != "backups" {
				t.Errorf("bucket = %q", got)
			}
			if got := aws.ToString(fake.in.Key); got != tc.wantKey {
				t.Errorf("key = %q, want %q", got, tc.wantKey)
			}
			if got := aws.ToString(fake.in.ContentType); got != "application/x-ndjson" {
				t.Errorf("content type = %q", got)
			}
			if fake.in.Metadata["exporter"] != "landreg" {
				t.Errorf("metadata = %v", fake.in.Metadata)
			}
			if string(fake.body) != string(data) {
				t.Errorf("body = %q", fake.body)
			}
		})
	}
}

func TestS3Destination_WriteError(t *testing.T) {
	fake := &fakeS3{err: errors.New("NoSuchBucket")}
	dest := &S3Destination{client: fake, bucket: "missing", key: "k"}

	if err := dest.Write(context.Background(), []byte(`{"type":"header"}`)); err == nil {
		t.Fatal("expected error")
	}
}

func TestS3Destination_OwnerKeyNeedsHeader(t *testing.T) {
	fake := &fakeS3{}
	dest := &S3Destination{client: fake, bucket: "b", key: "{owner}.jsonl"}

	if err := dest.Write(context.Background(), []byte("garbage")); err == nil {
		t.Fatal("expected error")
	}
	if fake.in != nil {
		t.Error("PutObject called for data without a header")
	}
}
