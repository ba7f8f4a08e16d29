// Package main runs the hooks API on AWS Lambda behind API Gateway (HTTP API).
//
// Endpoints are those of the web server plus the S3 upload routes:
//
//	GET  /healthz
//	POST /generate       multipart upload, subject to the API Gateway payload limit
//	GET  /upload-url     presigned S3 PUT URL for larger uploads
//	POST /generate/s3    run the pipeline on an uploaded object
//
// Per-request pipeline metrics are written to stdout as CloudWatch EMF.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/media-hooks/internal/backend"
	"github.com/fpang/media-hooks/internal/config"
	"github.com/fpang/media-hooks/internal/lambdaboot"
	"github.com/fpang/media-hooks/internal/logging"
	"github.com/fpang/media-hooks/internal/metrics"
	"github.com/fpang/media-hooks/internal/webapi"
)

var handler http.Handler

func init() {
	start := time.Now()
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()
	clients, err := lambdaboot.InitAWS(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	s3c, err := lambdaboot.InitS3(clients.Config, cfg.S3Bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("S3 is not configured")
	}
	if cfg.UsesProvider(config.ProviderGemini) {
		if err := lambdaboot.LoadGeminiKey(ctx, clients.SSM); err != nil {
			log.Fatal().Err(err).Msg("Failed to read API key from SSM")
		}
	}

	be, err := backend.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise inference backend")
	}

	originSecret := os.Getenv("ORIGIN_VERIFY_SECRET")
	if originSecret == "" {
		log.Warn().Msg("ORIGIN_VERIFY_SECRET not set, origin verification disabled")
	}

	handler = webapi.New(be.Orchestrator(cfg), webapi.Options{
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RequestTimeout:     cfg.RequestTimeout,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		OriginVerifySecret: originSecret,
		OnOutcome:          emitEMF(cfg.MetricsNamespace),
		S3: &webapi.S3Options{
			Client:      s3c.Client,
			Presigner:   s3c.Presigner,
			Bucket:      s3c.Bucket,
			DeleteAfter: true,
		},
	})

	logging.NewStartupLogger("hooks-lambda").
		CommitHash(commitHash).
		Provider("vision", be.VisionName).
		Provider("text", be.TextName).
		Feature("video", be.Video != nil).
		Feature("originVerify", originSecret != "").
		Config("bucket", s3c.Bucket).
		Config("metricsNamespace", cfg.MetricsNamespace).
		InitDuration(time.Since(start)).
		Log()
}

func emitEMF(namespace string) webapi.OutcomeFunc {
	return func(r *http.Request, o metrics.Outcome) {
		metrics.New(namespace).
			Record(o).
			Property("requestId", webapi.RequestID(r.Context())).
			Flush()
	}
}

func main() {
	adapter := httpadapter.NewV2(handler)
	lambda.Start(adapter.ProxyWithContext)
}
