package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3TestKey = "0f8fad5b-d9cb-469f-a165-70867728950e/dog.jpg"

type fakeBucket struct {
	objects map[string][]byte
	deleted []string
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: aws.String("image/jpeg"),
	}, nil
}

func (f *fakeBucket) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

type fakePresigner struct{ contentType string }

func (f *fakePresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.contentType = aws.ToString(in.ContentType)
	return &v4.PresignedHTTPRequest{URL: "https://uploads.example/" + aws.ToString(in.Key), Method: http.MethodPut}, nil
}

func s3Server(runner Runner, bucket *fakeBucket, presigner *fakePresigner) *Server {
	return New(runner, Options{
		MaxUploadBytes: 1024,
		S3: &S3Options{
			Client:      bucket,
			Presigner:   presigner,
			Bucket:      "uploads",
			DeleteAfter: true,
		},
	})
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGenerateS3(t *testing.T) {
	runner := &stubRunner{res: dogResult()}
	bucket := &fakeBucket{objects: map[string][]byte{s3TestKey: []byte("jpeg")}}
	srv := s3Server(runner, bucket, &fakePresigner{})

	rec := postJSON(srv, "/generate/s3", `{"key":"`+s3TestKey+`","language":"de"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got := runner.got[0]
	if string(got.Data) != "jpeg" || got.Filename != "dog.jpg" || got.ContentType != "image/jpeg" || got.Language != "de" {
		t.Errorf("request = %+v", got)
	}
	if len(bucket.deleted) != 1 || bucket.deleted[0] != s3TestKey {
		t.Errorf("deleted = %v", bucket.deleted)
	}
}

func TestGenerateS3_Errors(t *testing.T) {
	big := "0f8fad5b-d9cb-469f-a165-70867728950e/big.jpg"
	bucket := &fakeBucket{objects: map[string][]byte{big: bytes.Repeat([]byte("x"), 2048)}}
	srv := s3Server(&stubRunner{res: dogResult()}, bucket, &fakePresigner{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"bad key", `{"key":"../etc/passwd"}`, http.StatusBadRequest},
		{"missing object", `{"key":"` + s3TestKey + `"}`, http.StatusNotFound},
		{"too large", `{"key":"` + big + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(srv, "/generate/s3", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestUploadURL(t *testing.T) {
	presigner := &fakePresigner{}
	srv := s3Server(&stubRunner{}, &fakeBucket{}, presigner)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload-url?filename=clip.mp4", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp uploadURLResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(resp.Key, "/clip.mp4") || resp.UploadURL != "https://uploads.example/"+resp.Key {
		t.Errorf("response = %+v", resp)
	}
	if presigner.contentType != "video/mp4" {
		t.Errorf("presigned content type = %q", presigner.contentType)
	}

	for _, q := range []string{"", "filename=notes.txt", "filename=../x.jpg"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload-url?"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("query %q: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestS3RoutesDisabled(t *testing.T) {
	rec := postJSON(New(&stubRunner{}, Options{}), "/generate/s3", `{}`)
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 404 or 405", rec.Code)
	}
}
