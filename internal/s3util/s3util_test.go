package s3util

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeObjects struct {
	data          []byte
	contentType   string
	contentLength *int64
	getErr        error
	deleteErr     error

	gotBucket, gotKey string
	deleted           []string
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gotBucket, f.gotKey = aws.ToString(in.Bucket), aws.ToString(in.Key)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(f.data)),
		ContentType:   aws.String(f.contentType),
		ContentLength: f.contentLength,
	}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, f.deleteErr
}

type fakePresigner struct {
	in      *s3.PutObjectInput
	expires time.Duration
}

func (f *fakePresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.in = in
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://bucket.example/" + aws.ToString(in.Key), Method: "PUT"}, nil
}

const testKey = "0f8fad5b-d9cb-469f-a165-70867728950e/dog.jpg"

func TestFetchObject(t *testing.T) {
	f := &fakeObjects{data: []byte("jpeg bytes"), contentType: "image/jpeg"}

	obj, err := FetchObject(context.Background(), f, "uploads", testKey, 1024)
	if err != nil {
		t.Fatalf("FetchObject() error = %v", err)
	}
	if f.gotBucket != "uploads" || f.gotKey != testKey {
		t.Errorf("GetObject called with %q/%q", f.gotBucket, f.gotKey)
	}
	if string(obj.Data) != "jpeg bytes" || obj.ContentType != "image/jpeg" || obj.Filename() != "dog.jpg" {
		t.Errorf("FetchObject() = %+v", obj)
	}
}

func TestFetchObject_TooLarge(t *testing.T) {
	tests := []struct {
		name string
		f    *fakeObjects
	}{
		{"declared length", &fakeObjects{data: []byte("x"), contentLength: aws.Int64(2048)}},
		{"body longer than limit", &fakeObjects{data: bytes.Repeat([]byte("x"), 11)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FetchObject(context.Background(), tt.f, "b", testKey, 10)
			if !errors.Is(err, ErrObjectTooLarge) {
				t.Errorf("FetchObject() error = %v, want ErrObjectTooLarge", err)
			}
		})
	}
}

func TestFetchObject_GetError(t *testing.T) {
	f := &fakeObjects{getErr: errors.New("NoSuchKey")}
	_, err := FetchObject(context.Background(), f, "b", testKey, 10)
	if err == nil || !strings.Contains(err.Error(), "NoSuchKey") {
		t.Errorf("FetchObject() error = %v", err)
	}
}

func TestDeleteObject(t *testing.T) {
	f := &fakeObjects{deleteErr: errors.New("denied")}
	DeleteObject(context.Background(), f, "b", testKey)
	if len(f.deleted) != 1 || f.deleted[0] != testKey {
		t.Errorf("deleted = %v", f.deleted)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{testKey, true},
		{"0f8fad5b-d9cb-469f-a165-70867728950e/clip (1).mp4", true},
		{"dog.jpg", false},
		{"not-a-uuid/dog.jpg", false},
		{"/0f8fad5b-d9cb-469f-a165-70867728950e/dog.jpg", false},
		{"0f8fad5b-d9cb-469f-a165-70867728950e/../secret", false},
		{"0f8fad5b-d9cb-469f-a165-70867728950e/", false},
		{"0f8fad5b-d9cb-469f-a165-70867728950e/a/b.jpg", false},
	}
	for _, tt := range tests {
		if err := ValidateKey(tt.key); (err == nil) != tt.valid {
			t.Errorf("ValidateKey(%q) = %v, want valid=%v", tt.key, err, tt.valid)
		}
	}
}

func TestNewUploadKey(t *testing.T) {
	key, err := NewUploadKey("dog.jpg")
	if err != nil {
		t.Fatalf("NewUploadKey() error = %v", err)
	}
	if err := ValidateKey(key); err != nil {
		t.Errorf("generated key %q is invalid: %v", key, err)
	}
	if _, err := NewUploadKey("../etc/passwd"); err == nil {
		t.Error("expected error for traversal filename")
	}
}

func TestPresignUpload(t *testing.T) {
	p := &fakePresigner{}
	url, err := PresignUpload(context.Background(), p, "uploads", testKey, "image/jpeg", 15*time.Minute)
	if err != nil {
		t.Fatalf("PresignUpload() error = %v", err)
	}
	if url != "https://bucket.example/"+testKey {
		t.Errorf("url = %q", url)
	}
	if aws.ToString(p.in.ContentType) != "image/jpeg" || p.expires != 15*time.Minute {
		t.Errorf("presign input = %+v, expires = %v", p.in, p.expires)
	}
}
