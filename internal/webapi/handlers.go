package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fpang/media-hooks/internal/apperr"
	"github.com/fpang/media-hooks/internal/metrics"
	"github.com/fpang/media-hooks/internal/pipeline"
)

// maxMemory is how much of a multipart form is buffered in memory before
// spilling to disk.
const maxMemory = 8 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// RespondJSON writes data as a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// HTTPError writes an ErrorResponse.
func HTTPError(w http.ResponseWriter, r *http.Request, status int, kind, message string) {
	zerolog.Ctx(r.Context()).Debug().Int("status", status).Str("kind", kind).Msg(message)
	RespondJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HTTPError(w, r, http.StatusRequestEntityTooLarge, "upload_too_large", "upload exceeds size limit")
			return
		}
		HTTPError(w, r, http.StatusBadRequest, "bad_request", "expected a multipart form upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		HTTPError(w, r, http.StatusBadRequest, "bad_request", "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		HTTPError(w, r, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}

	s.Generate(w, r, "upload", pipeline.Request{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
		Language:    r.FormValue("language"),
	})
}

// Generate runs req through the pipeline and writes the result or error
// body. source labels the entry point in metrics.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request, source string, req pipeline.Request) {
	ctx := r.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	res, err := s.runner.Run(ctx, req)
	s.observe(r, source, res, err)

	if err != nil {
		kind := apperr.KindOf(err)
		msg := err.Error()
		if kind == apperr.KindPipeline {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Pipeline failed")
			msg = kind.Label()
		}
		HTTPError(w, r, apperr.HTTPStatus(kind), kind.String(), msg)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

func (s *Server) observe(r *http.Request, source string, res *pipeline.Result, err error) {
	o := metrics.Outcome{Source: source}
	if res != nil {
		o.MediaKind = res.MediaKind.String()
		o.Load = res.Timings.Load
		o.Describe = res.Timings.Describe
		o.Hooks = res.Timings.Hooks
		o.Total = res.Timings.Total
	}
	if err != nil {
		o.ErrorKind = apperr.KindOf(err).String()
	}
	if s.opts.Collector != nil {
		s.opts.Collector.Observe(o)
	}
	if s.opts.OnOutcome != nil {
		s.opts.OnOutcome(r, o)
	}
}
