package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/media-hooks/internal/apperr"
	"github.com/fpang/media-hooks/internal/assets"
	"github.com/fpang/media-hooks/internal/filehandler"
	"github.com/fpang/media-hooks/internal/inference"
)

// DefaultDescribeMaxTokens bounds the scene description to about one sentence.
const DefaultDescribeMaxTokens = 50

// describe produces the scene description. Capability failures and empty
// output are vision inference errors.
func (o *Orchestrator) describe(ctx context.Context, img *filehandler.NormalizedImage) (string, error) {
	const op = "describe"
	opts := inference.DescribeOptions{
		MaxTokens: o.opts.DescribeMaxTokens,
		Prompt:    assets.SceneDescriptionPrompt,
	}

	start := time.Now()
	text, err := retry(ctx, o.opts.Retry, op, func() (string, error) {
		return o.describer.Describe(ctx, img.Image(), opts)
	})
	if err != nil {
		return "", apperr.E(apperr.KindVisionInference, op, err)
	}

	// Collapse newlines so the description reads as one line inside prompts.
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", apperr.Errorf(apperr.KindVisionInference, op, "vision model returned an empty description")
	}

	log.Debug().
		Str("description", text).
		Dur("duration", time.Since(start)).
		Msg("Scene described")

	return text, nil
}
