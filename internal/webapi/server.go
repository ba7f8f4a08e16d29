// Package webapi serves the hook pipeline over HTTP.
//
// Endpoints:
//
//	POST /generate  multipart upload (file, language) -> captions and hashtags
//	GET  /healthz   liveness probe
//	GET  /metrics   Prometheus exposition, when a collector is configured
//
// With S3 configured, large uploads go through the bucket instead:
//
//	GET  /upload-url?filename=&contentType=  presigned PUT URL and object key
//	POST /generate/s3  {"key","language"}   run the pipeline on an uploaded object
package webapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/time/rate"

	"github.com/fpang/media-hooks/internal/metrics"
	"github.com/fpang/media-hooks/internal/pipeline"
)

// DefaultMaxUploadBytes caps a multipart upload when Options leaves it unset.
const DefaultMaxUploadBytes int64 = 32 << 20

// Runner executes one pipeline request. *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// OutcomeFunc receives the metrics summary of every pipeline run.
type OutcomeFunc func(r *http.Request, o metrics.Outcome)

// Options configures the HTTP surface.
type Options struct {
	MaxUploadBytes int64
	// RequestTimeout bounds one pipeline run. Zero means no extra deadline.
	RequestTimeout time.Duration
	CORSOrigins    []string
	// RateLimitRPS enables a process-wide token bucket when positive.
	RateLimitRPS   float64
	RateLimitBurst int
	// OriginVerifySecret, when set, must be echoed in X-Origin-Verify.
	OriginVerifySecret string
	// Collector enables /metrics and HTTP latency histograms.
	Collector *metrics.Collector
	// OnOutcome is called after each pipeline run.
	OnOutcome OutcomeFunc
	// S3 enables the upload-url and generate/s3 routes.
	S3 *S3Options
}

// Server is the HTTP front end for a Runner.
type Server struct {
	runner Runner
	opts   Options
	router chi.Router
}

// New builds the router and middleware stack.
func New(runner Runner, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	s := &Server{runner: runner, opts: opts}

	r := chi.NewRouter()
	r.Use(
		requestID,
		middleware.RealIP,
		accessLog,
		middleware.Recoverer,
		withCORS(opts.CORSOrigins),
		func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) },
	)
	if opts.Collector != nil {
		r.Use(withHTTPMetrics(opts.Collector))
	}

	r.Get("/healthz", s.handleHealth)
	if opts.Collector != nil {
		r.Method(http.MethodGet, "/metrics", opts.Collector.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(withOriginVerify(opts.OriginVerifySecret))
		if opts.RateLimitRPS > 0 {
			burst := opts.RateLimitBurst
			if burst <= 0 {
				burst = 1
			}
			r.Use(withRateLimit(rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)))
		}
		r.Post("/generate", s.handleGenerate)
		if opts.S3 != nil {
			r.Get("/upload-url", s.handleUploadURL)
			r.Post("/generate/s3", s.handleGenerateS3)
		}
	})

	s.router = r
	return s
}

// Router exposes the router so entry points can mount extra routes.
func (s *Server) Router() chi.Router { return s.router }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
