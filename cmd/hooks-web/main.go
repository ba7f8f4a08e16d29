package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/media-hooks/internal/backend"
	"github.com/fpang/media-hooks/internal/cli"
	"github.com/fpang/media-hooks/internal/config"
	"github.com/fpang/media-hooks/internal/logging"
	"github.com/fpang/media-hooks/internal/metrics"
	"github.com/fpang/media-hooks/internal/webapi"
)

// CLI flags
var (
	portFlag     int
	modelFlag    string
	visionFlag   string
	textFlag     string
	validateFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "hooks-web",
	Short: "HTTP server that turns photos and videos into social media hooks",
	Long: `Hooks Web serves POST /generate: upload an image or video and get back a
title, an engaging question, a witty caption and a set of hashtags.

Examples:
  hooks-web
  hooks-web --port 9090
  hooks-web --vision llama --text openai`,
	RunE: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (default $PORT or 8080)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use (default $GEMINI_MODEL)")
	rootCmd.Flags().StringVar(&visionFlag, "vision", "", "Vision provider: gemini or llama")
	rootCmd.Flags().StringVar(&textFlag, "text", "", "Text provider: gemini, llama or openai")
	rootCmd.Flags().BoolVar(&validateFlag, "validate-key", false, "Validate the Gemini API key at startup")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	start := time.Now()
	_ = godotenv.Load()
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := backend.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init backend: %w", err)
	}
	if validateFlag {
		if err := be.ValidateGemini(ctx); err != nil {
			log.Error().Err(err).Msg(cli.ValidationHint(err))
			return err
		}
		log.Info().Msg("API key validated")
	}

	collector := metrics.NewCollector("media_hooks")
	api := webapi.New(be.Orchestrator(cfg), webapi.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Collector:      collector,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logging.NewStartupLogger("hooks-web").
		CommitHash(commitHash).
		Provider("vision", be.VisionName).
		Provider("text", be.TextName).
		Feature("video", be.Video != nil).
		Feature("rateLimit", cfg.RateLimitRPS > 0).
		Config("addr", cfg.Addr()).
		Config("maxUploadBytes", strconv.FormatInt(cfg.MaxUploadBytes, 10)).
		Config("retryMaxAttempts", strconv.Itoa(cfg.RetryMaxAttempts)).
		InitDuration(time.Since(start)).
		Log()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting web server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// applyFlags lets explicit flags win over the environment.
func applyFlags(cfg *config.Config) {
	if portFlag > 0 {
		cfg.Port = strconv.Itoa(portFlag)
	}
	if modelFlag != "" {
		cfg.GeminiModel = modelFlag
	}
	if visionFlag != "" {
		cfg.VisionProvider = visionFlag
	}
	if textFlag != "" {
		cfg.TextProvider = textFlag
	}
}
