// Package inference defines the model capabilities the hook pipeline depends on.
// Providers live in their own packages (chat, llama, openai) and are selected
// at startup by the backend package.
package inference

import (
	"context"
	"image"
)

// DescribeOptions bounds a scene description call.
type DescribeOptions struct {
	// MaxTokens caps the description length. Decoding is deterministic.
	MaxTokens int
	// Prompt is the instruction sent alongside the image. Providers that
	// caption without a prompt may ignore it.
	Prompt string
}

// Describer produces one neutral description of an image.
type Describer interface {
	Describe(ctx context.Context, img image.Image, opts DescribeOptions) (string, error)
}

// DecodingParams are the sampling controls for one text generation call.
type DecodingParams struct {
	MaxTokens         int
	MinTokens         int
	Sample            bool
	Temperature       float64
	RepetitionPenalty float64
}

// Generation is the raw result of one text generation call.
type Generation struct {
	Text       string
	TokenCount int
}

// Generator produces text from a prompt under the given decoding params.
type Generator interface {
	Generate(ctx context.Context, prompt string, params DecodingParams) (Generation, error)
}

// DescriberFunc adapts a function to the Describer interface.
type DescriberFunc func(ctx context.Context, img image.Image, opts DescribeOptions) (string, error)

func (f DescriberFunc) Describe(ctx context.Context, img image.Image, opts DescribeOptions) (string, error) {
	return f(ctx, img, opts)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, params DecodingParams) (Generation, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, params DecodingParams) (Generation, error) {
	return f(ctx, prompt, params)
}
