package cli

import (
	"errors"

	"github.com/fpang/media-hooks/internal/auth"
)

// ValidationHint turns an API key validation failure into advice for the user.
func ValidationHint(err error) string {
	if errors.Is(err, auth.ErrNoAPIKey) {
		return "No API key configured. Set GEMINI_API_KEY or store it in ~/.media-hooks/gemini.gpg"
	}
	var validationErr *auth.ValidationError
	if !errors.As(err, &validationErr) {
		return "Unexpected error during API key validation"
	}
	switch validationErr.Type {
	case auth.ErrTypeInvalidKey:
		return "Invalid API key. Please check your API key and try again"
	case auth.ErrTypeNetworkError:
		return "Network error. Please check your internet connection"
	case auth.ErrTypeQuotaExceeded:
		return "API quota exceeded. Please try again later or check your usage limits"
	default:
		return "API key validation failed"
	}
}
