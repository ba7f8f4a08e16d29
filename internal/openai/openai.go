// Package openai implements the text capability with OpenAI chat completions.
// It has no vision capability; pair it with another describer.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	oagc "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/fpang/media-hooks/internal/assets"
	"github.com/fpang/media-hooks/internal/inference"
)

// DefaultModel is used when Options.Model is empty.
const DefaultModel = "gpt-4o-mini"

// Options configures the OpenAI generator.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	// RequestsPerMinute throttles calls client-side. Zero disables throttling.
	RequestsPerMinute int
	HTTPClient        *http.Client
}

// Generator is an inference.Generator backed by chat completions.
type Generator struct {
	oac     *oagc.Client
	model   string
	limiter *rate.Limiter
}

var _ inference.Generator = (*Generator)(nil)

// New creates a Generator. The SDK's own retries are disabled because the
// pipeline retries transient failures itself.
func New(opts Options) (*Generator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	g := &Generator{
		oac:   oagc.NewClient(reqOpts...),
		model: model,
	}
	if opts.RequestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), opts.RequestsPerMinute)
	}
	return g, nil
}

func (g *Generator) Name() string { return "openai" }

func (g *Generator) Model() string { return g.model }

// Generate sends one chat completion with the hook system instruction.
// Chat completions have no minimum length control, so MinTokens is not sent.
func (g *Generator) Generate(ctx context.Context, prompt string, params inference.DecodingParams) (inference.Generation, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return inference.Generation{}, err
		}
	}

	start := time.Now()
	resp, err := g.oac.Chat.Completions.New(ctx, g.completionParams(prompt, params))
	if err != nil {
		return inference.Generation{}, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return inference.Generation{}, errors.New("openai returned no choices")
	}

	log.Debug().
		Str("model", g.model).
		Int64("tokens", resp.Usage.CompletionTokens).
		Dur("duration", time.Since(start)).
		Msg("OpenAI completion received")

	return inference.Generation{
		Text:       resp.Choices[0].Message.Content,
		TokenCount: int(resp.Usage.CompletionTokens),
	}, nil
}

func (g *Generator) completionParams(prompt string, params inference.DecodingParams) oagc.ChatCompletionNewParams {
	p := oagc.ChatCompletionNewParams{
		Messages: oagc.F([]oagc.ChatCompletionMessageParamUnion{
			oagc.SystemMessage(assets.HookSystemPrompt),
			oagc.UserMessage(prompt),
		}),
		Model: oagc.F(oagc.ChatModel(g.model)),
		N:     oagc.Int(1),
	}
	if params.MaxTokens > 0 {
		p.MaxTokens = oagc.Int(int64(params.MaxTokens))
	}
	if params.Sample {
		p.Temperature = oagc.Float(params.Temperature)
	} else {
		p.Temperature = oagc.Float(0)
	}
	// Map the multiplicative penalty onto OpenAI's additive one.
	if params.RepetitionPenalty > 1 {
		p.FrequencyPenalty = oagc.Float(params.RepetitionPenalty - 1)
	}
	return p
}

func classifyError(err error) error {
	var apiErr *oagc.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return inference.MarkTransient(fmt.Errorf("openai: %w", err))
		}
	}
	return fmt.Errorf("openai: %w", err)
}
