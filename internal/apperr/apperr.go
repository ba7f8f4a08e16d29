// Package apperr defines the error kinds surfaced by the hook pipeline.
//
// Stages return *Error values tagged with a Kind. Only the outer boundaries
// (HTTP handlers, CLI, MCP tool) turn them into user-facing text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindPipeline is any unexpected failure not attributable to a specific stage.
	KindPipeline Kind = iota
	// KindMediaDecode means the upload could not be decoded as an image.
	KindMediaDecode
	// KindFrameExtraction means no frame could be read from the uploaded video.
	KindFrameExtraction
	// KindVisionInference means the vision capability failed or returned nothing.
	KindVisionInference
	// KindTextGeneration means a hook generation call failed.
	KindTextGeneration
)

var kindNames = map[Kind]string{
	KindPipeline:        "pipeline",
	KindMediaDecode:     "media_decode",
	KindFrameExtraction: "frame_extraction",
	KindVisionInference: "vision_inference",
	KindTextGeneration:  "text_generation",
}

// String returns the snake_case name used in JSON error bodies and metric labels.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Label returns a short human-readable prefix for error messages.
func (k Kind) Label() string {
	switch k {
	case KindMediaDecode:
		return "Media decode error"
	case KindFrameExtraction:
		return "Video error"
	case KindVisionInference:
		return "Vision inference error"
	case KindTextGeneration:
		return "Text generation error"
	default:
		return "Pipeline error"
	}
}

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Op   string // stage or operation that failed, e.g. "describe"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind.Label(), e.Op)
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind.Label(), e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind.Label(), e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a classified error. If err is already an *Error it is returned
// unchanged so the innermost classification wins.
func E(kind Kind, op string, err error) error {
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or KindPipeline.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPipeline
}

// Wrap classifies an arbitrary error as a pipeline error unless it is
// already classified. A nil error stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return E(KindPipeline, op, err)
}

// HTTPStatus maps a kind to the HTTP status returned by the web boundary.
func HTTPStatus(k Kind) int {
	switch k {
	case KindMediaDecode:
		return http.StatusBadRequest
	case KindFrameExtraction:
		return http.StatusUnprocessableEntity
	case KindVisionInference, KindTextGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
