package webapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"time"

	"github.com/fpang/media-hooks/internal/filehandler"
	"github.com/fpang/media-hooks/internal/pipeline"
	"github.com/fpang/media-hooks/internal/s3util"
)

// DefaultPresignExpiry is how long an upload URL stays valid.
const DefaultPresignExpiry = 15 * time.Minute

// S3Options configures uploads that go through a bucket.
type S3Options struct {
	Client    s3util.ObjectAPI
	Presigner s3util.PresignAPI
	Bucket    string
	Expiry    time.Duration
	// MaxObjectBytes caps a fetched object. Zero uses Options.MaxUploadBytes.
	MaxObjectBytes int64
	// DeleteAfter removes the object once the pipeline has run.
	DeleteAfter bool
}

type uploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}

type generateS3Request struct {
	Key      string `json:"key"`
	Language string `json:"language"`
}

func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	contentType := r.URL.Query().Get("contentType")

	key, err := s3util.NewUploadKey(filename)
	if err != nil {
		HTTPError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	ext := path.Ext(filename)
	if !filehandler.IsSupported(ext) {
		HTTPError(w, r, http.StatusBadRequest, "bad_request", "unsupported file type")
		return
	}
	if contentType == "" {
		contentType, _ = filehandler.GetMIMEType(ext)
	}

	expiry := s.opts.S3.Expiry
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	url, err := s3util.PresignUpload(r.Context(), s.opts.S3.Presigner, s.opts.S3.Bucket, key, contentType, expiry)
	if err != nil {
		HTTPError(w, r, http.StatusInternalServerError, "storage", "failed to create upload URL")
		return
	}
	RespondJSON(w, http.StatusOK, uploadURLResponse{UploadURL: url, Key: key})
}

func (s *Server) handleGenerateS3(w http.ResponseWriter, r *http.Request) {
	var body generateS3Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&body); err != nil {
		HTTPError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := s3util.ValidateKey(body.Key); err != nil {
		HTTPError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	limit := s.opts.S3.MaxObjectBytes
	if limit <= 0 {
		limit = s.opts.MaxUploadBytes
	}
	obj, err := s3util.FetchObject(r.Context(), s.opts.S3.Client, s.opts.S3.Bucket, body.Key, limit)
	if errors.Is(err, s3util.ErrObjectTooLarge) {
		HTTPError(w, r, http.StatusRequestEntityTooLarge, "upload_too_large", "upload exceeds size limit")
		return
	}
	if err != nil {
		HTTPError(w, r, http.StatusNotFound, "not_found", "upload not found")
		return
	}
	if s.opts.S3.DeleteAfter {
		defer s3util.DeleteObject(r.Context(), s.opts.S3.Client, s.opts.S3.Bucket, body.Key)
	}

	s.Generate(w, r, "s3", pipeline.Request{
		Data:        obj.Data,
		ContentType: obj.ContentType,
		Filename:    obj.Filename(),
		Language:    body.Language,
	})
}
