package chat

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/media-hooks/internal/assets"
	"github.com/fpang/media-hooks/internal/filehandler"
	"github.com/fpang/media-hooks/internal/inference"
)

// imageJPEGQuality is the quality of the inline JPEG sent with describe calls.
const imageJPEGQuality = 90

// Gemini is a Describer and Generator backed by one Gemini model.
// It is safe for concurrent use.
type Gemini struct {
	client *genai.Client
	model  string
}

var (
	_ inference.Describer = (*Gemini)(nil)
	_ inference.Generator = (*Gemini)(nil)
)

// NewGemini wraps a client. An empty model selects GetModelName().
func NewGemini(client *genai.Client, model string) *Gemini {
	if model == "" {
		model = GetModelName()
	}
	return &Gemini{client: client, model: model}
}

// Model returns the model ID used for requests.
func (g *Gemini) Model() string {
	return g.model
}

// Describe sends the image inline as JPEG with the scene description prompt.
// Decoding is greedy so the same image yields the same description.
func (g *Gemini) Describe(ctx context.Context, img image.Image, opts inference.DescribeOptions) (string, error) {
	data, err := filehandler.EncodeJPEG(img, imageJPEGQuality)
	if err != nil {
		return "", err
	}

	prompt := opts.Prompt
	if prompt == "" {
		prompt = assets.SceneDescriptionPrompt
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: data}},
			{Text: prompt},
		},
	}}
	config := describeConfig(opts)

	log.Debug().
		Str("model", g.model).
		Int("image_bytes", len(data)).
		Int32("max_output_tokens", config.MaxOutputTokens).
		Msg("Starting Gemini API call for scene description")

	text, _, err := g.generate(ctx, contents, config)
	if err != nil {
		return "", err
	}
	return text, nil
}

// Generate sends a text prompt with the hook system instruction.
func (g *Gemini) Generate(ctx context.Context, prompt string, params inference.DecodingParams) (inference.Generation, error) {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	config := generateConfig(params)

	log.Debug().
		Str("model", g.model).
		Int("prompt_length", len(prompt)).
		Float64("temperature", params.Temperature).
		Msg("Starting Gemini API call for hook generation")

	text, tokens, err := g.generate(ctx, contents, config)
	if err != nil {
		return inference.Generation{}, err
	}
	return inference.Generation{Text: text, TokenCount: tokens}, nil
}

func (g *Gemini) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, int, error) {
	if disablesThinking(g.model) {
		// Hooks and descriptions are a few dozen tokens; thinking would eat
		// the whole output budget.
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)}
	}

	callStart := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	duration := time.Since(callStart)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Gemini API call failed")
		return "", 0, classifyError(fmt.Errorf("gemini generate content: %w", err))
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", 0, errors.New("received empty response from Gemini API")
	}

	text := strings.TrimSpace(resp.Text())
	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	log.Debug().
		Int("response_length", len(text)).
		Int("tokens", tokens).
		Dur("duration", duration).
		Msg("Gemini API response received")

	return text, tokens, nil
}

// describeConfig maps describe options to a greedy, bounded request.
func describeConfig(opts inference.DescribeOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:    genai.Ptr[float32](0),
		CandidateCount: 1,
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	return config
}

// generateConfig maps decoding params onto Gemini controls. Gemini has no
// multiplicative repetition penalty, so the excess over 1.0 becomes the
// additive frequency penalty. Gemini has no minimum length control.
func generateConfig(params inference.DecodingParams) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: assets.HookSystemPrompt}},
		},
		CandidateCount: 1,
	}
	if params.MaxTokens > 0 {
		config.MaxOutputTokens = int32(params.MaxTokens)
	}
	if params.Sample {
		config.Temperature = genai.Ptr(float32(params.Temperature))
	} else {
		config.Temperature = genai.Ptr[float32](0)
	}
	if params.RepetitionPenalty > 1 {
		config.FrequencyPenalty = genai.Ptr(float32(params.RepetitionPenalty - 1))
	}
	return config
}

// disablesThinking reports whether the model accepts a zero thinking budget.
// Gemini 2.5 models do; later generations use thinking levels instead.
func disablesThinking(model string) bool {
	return strings.HasPrefix(model, "gemini-2.5")
}
