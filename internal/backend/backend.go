// Package backend wires the configured inference providers into a pipeline.
package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/media-hooks/internal/auth"
	"github.com/fpang/media-hooks/internal/chat"
	"github.com/fpang/media-hooks/internal/config"
	"github.com/fpang/media-hooks/internal/filehandler"
	"github.com/fpang/media-hooks/internal/inference"
	"github.com/fpang/media-hooks/internal/llama"
	"github.com/fpang/media-hooks/internal/openai"
	"github.com/fpang/media-hooks/internal/pipeline"
)

// Backend holds the capability handles selected by configuration.
type Backend struct {
	Describer inference.Describer
	Generator inference.Generator
	// Video is nil when ffmpeg is not installed.
	Video filehandler.VideoDecoder

	// VisionName and TextName describe the providers, e.g. "gemini/gemini-2.5-flash-lite".
	VisionName string
	TextName   string

	// Gemini is set when either capability uses Gemini.
	Gemini      *genai.Client
	GeminiModel string
}

// New builds the vision and text capabilities from cfg. API keys come from
// auth.GetAPIKey.
func New(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}

	var gem *chat.Gemini
	if cfg.UsesProvider(config.ProviderGemini) {
		key, err := auth.GetAPIKey(auth.GeminiCredential)
		if err != nil {
			return nil, err
		}
		client, err := chat.NewGeminiClient(ctx, key)
		if err != nil {
			return nil, err
		}
		gem = chat.NewGemini(client, cfg.GeminiModel)
		b.Gemini = client
		b.GeminiModel = gem.Model()
	}

	var ll *llama.Client
	if cfg.UsesProvider(config.ProviderLlama) {
		ll = llama.New(cfg.LlamaURL, cfg.LlamaSeed, nil)
		if !ll.IsHealthy(ctx) {
			log.Warn().Str("url", cfg.LlamaURL).Msg("llama.cpp server is not healthy yet")
		}
	}

	switch cfg.VisionProvider {
	case config.ProviderGemini:
		b.Describer, b.VisionName = gem, "gemini/"+gem.Model()
	case config.ProviderLlama:
		b.Describer, b.VisionName = ll, "llama"
	default:
		return nil, fmt.Errorf("unsupported vision provider %q", cfg.VisionProvider)
	}

	switch cfg.TextProvider {
	case config.ProviderGemini:
		b.Generator, b.TextName = gem, "gemini/"+gem.Model()
	case config.ProviderLlama:
		b.Generator, b.TextName = ll, "llama"
	case config.ProviderOpenAI:
		key, err := auth.GetAPIKey(auth.OpenAICredential)
		if err != nil {
			return nil, err
		}
		gen, err := openai.New(openai.Options{
			APIKey:            key,
			Model:             cfg.OpenAIModel,
			BaseURL:           cfg.OpenAIBaseURL,
			RequestsPerMinute: cfg.OpenAIRPM,
		})
		if err != nil {
			return nil, err
		}
		b.Generator, b.TextName = gen, "openai/"+gen.Model()
	default:
		return nil, fmt.Errorf("unsupported text provider %q", cfg.TextProvider)
	}

	if dec, err := filehandler.NewFFmpegDecoder(); err != nil {
		log.Warn().Err(err).Msg("ffmpeg not available, video uploads will fail")
	} else {
		b.Video = dec
	}

	return b, nil
}

// Orchestrator builds a pipeline over the backend's capabilities.
func (b *Backend) Orchestrator(cfg *config.Config) *pipeline.Orchestrator {
	return pipeline.New(b.Describer, b.Generator, b.Video, PipelineOptions(cfg))
}

// PipelineOptions maps configuration onto pipeline options.
func PipelineOptions(cfg *config.Config) pipeline.Options {
	retry := pipeline.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.RetryMaxAttempts
	return pipeline.Options{
		TempDir:           cfg.TempDir,
		MaxImageDimension: cfg.MaxImageDimension,
		MaxImagePixels:    cfg.MaxImagePixels,
		HashtagMinLength:  cfg.HashtagMinLength,
		Retry:             retry,
	}
}

// ValidateGemini checks the Gemini key with a minimal request. It is a no-op
// when Gemini is not configured.
func (b *Backend) ValidateGemini(ctx context.Context) error {
	if b.Gemini == nil {
		return nil
	}
	return auth.ValidateAPIKey(ctx, b.Gemini, b.GeminiModel)
}
