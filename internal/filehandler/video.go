package filehandler

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog/log"

	"github.com/fpang/media-hooks/internal/apperr"
)

// VideoDecoder opens a video file for frame access.
type VideoDecoder interface {
	Open(ctx context.Context, path string) (VideoStream, error)
}

// VideoStream gives random access to the frames of one opened video.
// Close must be called exactly once.
type VideoStream interface {
	FrameCount(ctx context.Context) (int, error)
	ReadFrame(ctx context.Context, index int) (image.Image, error)
	Close() error
}

// RepresentativeFrameFraction is the position, as a fraction of the total
// frame count, of the frame used to describe a video.
const RepresentativeFrameFraction = 0.25

// FrameIndex returns floor(0.25 * frameCount) and false when the video has
// no frames.
func FrameIndex(frameCount int) (int, bool) {
	if frameCount <= 0 {
		return 0, false
	}
	return frameCount / 4, true
}

// frameSizer is implemented by streams that know their frame size before
// a frame is decoded.
type frameSizer interface {
	FrameSize() (width, height int)
}

// SelectFrame opens the video at path, reads the representative frame and
// normalizes it like an uploaded image. Frames above maxPixels are rejected.
// Any failure is a frame extraction error. The stream is always closed.
func SelectFrame(ctx context.Context, dec VideoDecoder, path string, maxDimension, maxPixels int) (*NormalizedImage, error) {
	const op = "select frame"

	stream, err := dec.Open(ctx, path)
	if err != nil {
		return nil, apperr.E(apperr.KindFrameExtraction, op, err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to close video stream")
		}
	}()

	count, err := stream.FrameCount(ctx)
	if err != nil {
		return nil, apperr.E(apperr.KindFrameExtraction, op, err)
	}

	index, ok := FrameIndex(count)
	if !ok {
		return nil, apperr.E(apperr.KindFrameExtraction, op, errors.New("video has no frames"))
	}

	if sz, ok := stream.(frameSizer); ok {
		if w, h := sz.FrameSize(); w > 0 && h > 0 {
			if err := CheckPixels(w, h, maxPixels); err != nil {
				return nil, apperr.E(apperr.KindFrameExtraction, op, err)
			}
		}
	}

	frame, err := stream.ReadFrame(ctx, index)
	if err != nil {
		return nil, apperr.E(apperr.KindFrameExtraction, op, fmt.Errorf("read frame %d: %w", index, err))
	}
	if frame == nil {
		return nil, apperr.Errorf(apperr.KindFrameExtraction, op, "frame %d is empty", index)
	}

	b := frame.Bounds()
	if err := CheckPixels(b.Dx(), b.Dy(), maxPixels); err != nil {
		return nil, apperr.E(apperr.KindFrameExtraction, op, err)
	}

	norm, err := NormalizeImage(frame, maxDimension)
	if err != nil {
		return nil, apperr.E(apperr.KindFrameExtraction, op, err)
	}

	log.Debug().
		Int("frame_count", count).
		Int("frame_index", index).
		Int("width", norm.Width()).
		Int("height", norm.Height()).
		Msg("Representative frame selected")

	return norm, nil
}
