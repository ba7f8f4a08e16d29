// Package s3util fetches and presigns media uploads kept in S3. Large uploads
// bypass the API Gateway payload limit by going to S3 first.
package s3util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrObjectTooLarge is returned when an object exceeds the fetch limit.
var ErrObjectTooLarge = errors.New("object exceeds size limit")

// ErrInvalidKey is returned for keys not shaped <uuid>/<filename>.
var ErrInvalidKey = errors.New("invalid key format: expected <uuid>/<filename>")

var (
	uuidRegex         = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	safeFilenameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._ ()-]{0,254}$`)
)

// ObjectAPI is the subset of *s3.Client used here.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// PresignAPI is the subset of *s3.PresignClient used here.
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Object is a fetched upload.
type Object struct {
	Key         string
	Data        []byte
	ContentType string
}

// Filename is the last path segment of the key.
func (o *Object) Filename() string {
	return path.Base(o.Key)
}

// NewUploadKey returns a fresh <uuid>/<filename> key for a browser upload.
func NewUploadKey(filename string) (string, error) {
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}
	return uuid.NewString() + "/" + filename, nil
}

// ValidateFilename accepts alphanumerics, dots, hyphens, underscores, spaces
// and parentheses.
func ValidateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("filename is required")
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) || !safeFilenameRegex.MatchString(name) {
		return fmt.Errorf("filename contains invalid characters")
	}
	return nil
}

// ValidateKey checks that key is <uuid>/<filename>.
func ValidateKey(key string) error {
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return ErrInvalidKey
	}
	parts := strings.SplitN(key, "/", 2)
	if len(parts) != 2 || !uuidRegex.MatchString(parts[0]) || ValidateFilename(parts[1]) != nil {
		return ErrInvalidKey
	}
	return nil
}

// FetchObject reads an object into memory, refusing objects larger than
// maxBytes.
func FetchObject(ctx context.Context, client ObjectAPI, bucket, key string, maxBytes int64) (*Object, error) {
	log.Debug().Str("bucket", bucket).Str("key", key).Msg("Fetching upload from S3")
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("S3 GetObject: %w", err)
	}
	defer result.Body.Close()

	if result.ContentLength != nil && *result.ContentLength > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrObjectTooLarge, *result.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(result.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrObjectTooLarge
	}

	return &Object{
		Key:         key,
		Data:        data,
		ContentType: aws.ToString(result.ContentType),
	}, nil
}

// DeleteObject removes a processed upload. Failures are logged only.
func DeleteObject(ctx context.Context, client ObjectAPI, bucket, key string) {
	_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to delete processed upload")
	}
}

// PresignUpload creates a pre-signed PUT URL for a browser upload.
func PresignUpload(ctx context.Context, presigner PresignAPI, bucket, key, contentType string, expiry time.Duration) (string, error) {
	req, err := presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign PutObject: %w", err)
	}
	return req.URL, nil
}
