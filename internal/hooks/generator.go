package hooks

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/media-hooks/internal/apperr"
	"github.com/fpang/media-hooks/internal/inference"
)

// Hook is one generated piece of copy.
type Hook struct {
	Style Style
	// Text is the cleaned, normalized output. It may be empty.
	Text string
	// Raw is the generator output before cleaning.
	Raw string
}

// Generate produces one hook for the given style. Unknown styles use the
// default caption template. Generator failures are returned as
// text generation errors.
func Generate(ctx context.Context, gen inference.Generator, description string, style Style) (Hook, error) {
	style, _ = resolve(style)
	op := "generate " + string(style)

	prompt, err := Prompt(style, description)
	if err != nil {
		return Hook{}, apperr.E(apperr.KindTextGeneration, op, err)
	}

	params := Params(style)
	start := time.Now()
	out, err := gen.Generate(ctx, prompt, params)
	if err != nil {
		return Hook{}, apperr.E(apperr.KindTextGeneration, op, err)
	}

	hook := Hook{
		Style: style,
		Raw:   out.Text,
		Text:  Clean(out.Text),
	}

	log.Debug().
		Str("style", string(style)).
		Int("tokens", out.TokenCount).
		Int("chars", len(hook.Text)).
		Dur("duration", time.Since(start)).
		Msg("Hook generated")

	// No backend enforces a minimum length, so a short reply is only reported.
	if out.TokenCount < params.MinTokens {
		log.Warn().
			Str("style", string(style)).
			Int("tokens", out.TokenCount).
			Int("min_tokens", params.MinTokens).
			Msg("Hook is shorter than the minimum token count")
	}

	return hook, nil
}
