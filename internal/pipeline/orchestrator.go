// Package pipeline runs one upload through the hook pipeline: load the media,
// describe the scene, generate three hooks concurrently, extract hashtags.
package pipeline

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/fpang/media-hooks/internal/apperr"
	"github.com/fpang/media-hooks/internal/filehandler"
	"github.com/fpang/media-hooks/internal/hooks"
	"github.com/fpang/media-hooks/internal/inference"
)

// DefaultLanguage is assumed when a request carries no usable language hint.
const DefaultLanguage = "en"

// Request is one uploaded media item.
type Request struct {
	Data        []byte
	ContentType string
	Filename    string
	// Language is an optional BCP 47 hint. It is validated and logged but does
	// not change prompts.
	Language string
}

// Result is the successful outcome of a run.
type Result struct {
	// Captions holds title, question and witty caption, in that order.
	Captions [3]string `json:"captions"`
	Hashtags string    `json:"hashtags"`

	Description string           `json:"-"`
	MediaKind   filehandler.Kind `json:"-"`
	Language    string           `json:"-"`
	Timings     Timings          `json:"-"`
}

// Timings records how long each stage took.
type Timings struct {
	Load     time.Duration
	Describe time.Duration
	Hooks    time.Duration
	Total    time.Duration
}

// Options tunes an Orchestrator. Zero values select defaults.
type Options struct {
	// TempDir receives video temp files. Empty means os.TempDir().
	TempDir           string
	MaxImageDimension int
	// MaxImagePixels caps width*height of an upload or video frame.
	MaxImagePixels    int
	DescribeMaxTokens int
	// HashtagMinLength is the length a token must exceed to become a hashtag.
	HashtagMinLength int
	Retry            RetryPolicy
}

func (o Options) withDefaults() Options {
	if o.MaxImageDimension == 0 {
		o.MaxImageDimension = filehandler.DefaultMaxImageDimension
	}
	if o.MaxImagePixels <= 0 {
		o.MaxImagePixels = filehandler.DefaultMaxImagePixels
	}
	if o.DescribeMaxTokens <= 0 {
		o.DescribeMaxTokens = DefaultDescribeMaxTokens
	}
	if o.HashtagMinLength <= 0 {
		o.HashtagMinLength = hooks.MinKeywordLength
	}
	if o.Retry == (RetryPolicy{}) {
		o.Retry = DefaultRetryPolicy()
	}
	return o
}

// Orchestrator sequences the pipeline stages. It holds only read-only
// capability handles and is safe for concurrent use.
type Orchestrator struct {
	describer inference.Describer
	generator inference.Generator
	video     filehandler.VideoDecoder
	opts      Options
}

// New creates an Orchestrator. video may be nil, in which case video uploads
// fail with a frame extraction error.
func New(describer inference.Describer, generator inference.Generator, video filehandler.VideoDecoder, opts Options) *Orchestrator {
	return &Orchestrator{
		describer: describer,
		generator: generator,
		video:     video,
		opts:      opts.withDefaults(),
	}
}

// Run processes one request. Every error carries an apperr kind. A temp file
// created for a video upload is removed before Run returns on every path.
func (o *Orchestrator) Run(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Pipeline panicked")
			res, err = nil, apperr.Errorf(apperr.KindPipeline, "run", "panic: %v", r)
		}
	}()

	kind := filehandler.DetectKind(req.ContentType, req.Filename)
	lang := normalizeLanguage(req.Language)

	log.Info().
		Str("media_kind", kind.String()).
		Str("content_type", req.ContentType).
		Int("size_bytes", len(req.Data)).
		Str("language", lang).
		Msg("Pipeline started")

	var timings Timings

	loadStart := time.Now()
	img, cleanup, err := o.load(ctx, kind, req)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return nil, o.fail(err, start)
	}
	timings.Load = time.Since(loadStart)

	describeStart := time.Now()
	description, err := o.describe(ctx, img)
	if err != nil {
		return nil, o.fail(err, start)
	}
	timings.Describe = time.Since(describeStart)

	hooksStart := time.Now()
	generated, err := o.generateHooks(ctx, description)
	if err != nil {
		return nil, o.fail(err, start)
	}
	timings.Hooks = time.Since(hooksStart)

	res = &Result{
		Captions: [3]string{
			hooks.DecorateTitle(generated[0].Text),
			generated[1].Text,
			generated[2].Text,
		},
		Hashtags:    hooks.ExtractHashtagsLonger(description, o.opts.HashtagMinLength),
		Description: description,
		MediaKind:   kind,
		Language:    lang,
	}
	timings.Total = time.Since(start)
	res.Timings = timings

	log.Info().
		Str("media_kind", kind.String()).
		Dur("load", timings.Load).
		Dur("describe", timings.Describe).
		Dur("hooks", timings.Hooks).
		Dur("total", timings.Total).
		Msg("Pipeline complete")

	return res, nil
}

// load turns the upload into a NormalizedImage. For video it also returns
// the temp file cleanup, which is non-nil whenever a file was written.
func (o *Orchestrator) load(ctx context.Context, kind filehandler.Kind, req Request) (*filehandler.NormalizedImage, func(), error) {
	if kind == filehandler.KindImage {
		img, err := filehandler.DecodeImage(req.Data, o.opts.MaxImageDimension, o.opts.MaxImagePixels)
		return img, nil, err
	}

	const op = "load video"
	if len(req.Data) == 0 {
		return nil, nil, apperr.E(apperr.KindFrameExtraction, op, errors.New("upload is empty"))
	}
	if o.video == nil {
		return nil, nil, apperr.E(apperr.KindFrameExtraction, op, errors.New("video decoding is not available"))
	}

	ext := filehandler.TempExtension(req.ContentType, req.Filename)
	path, cleanup, err := filehandler.WriteTempVideo(o.opts.TempDir, req.Data, ext)
	if err != nil {
		return nil, nil, apperr.E(apperr.KindPipeline, op, err)
	}

	img, err := filehandler.SelectFrame(ctx, o.video, path, o.opts.MaxImageDimension, o.opts.MaxImagePixels)
	return img, cleanup, err
}

// hookStyles is the caption order of Result.Captions.
var hookStyles = [3]hooks.Style{hooks.StyleShortTitle, hooks.StyleQuestion, hooks.StyleFunny}

// generateHooks runs the three styles concurrently and waits for all of them.
// The first failure cancels the others.
func (o *Orchestrator) generateHooks(ctx context.Context, description string) ([3]hooks.Hook, error) {
	var out [3]hooks.Hook
	gen := retryingGenerator{inner: o.generator, policy: o.opts.Retry}

	g, gctx := errgroup.WithContext(ctx)
	for i, style := range hookStyles {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = apperr.Errorf(apperr.KindPipeline, "generate "+string(style), "panic: %v", r)
				}
			}()
			hook, err := hooks.Generate(gctx, gen, description, style)
			if err != nil {
				return err
			}
			out[i] = hook
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// fail classifies err and logs it once.
func (o *Orchestrator) fail(err error, start time.Time) error {
	err = apperr.Wrap("run", err)
	log.Warn().
		Err(err).
		Str("kind", apperr.KindOf(err).String()).
		Dur("duration", time.Since(start)).
		Msg("Pipeline failed")
	return err
}

// normalizeLanguage canonicalizes a BCP 47 hint, falling back to
// DefaultLanguage when it is empty or invalid.
func normalizeLanguage(hint string) string {
	if hint == "" {
		return DefaultLanguage
	}
	tag, err := language.Parse(hint)
	if err != nil {
		log.Debug().Str("language", hint).Msg("Ignoring invalid language hint")
		return DefaultLanguage
	}
	return tag.String()
}
