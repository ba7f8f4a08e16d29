package chat

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/media-hooks/internal/inference"
)

// classifyError marks retryable Gemini failures as transient: rate limits,
// server-side errors and network problems. Everything else is returned as-is
// and will not be retried.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	if code, ok := apiErrorCode(err); ok {
		if isTransientStatus(code) {
			log.Warn().Int("code", code).Msg("Gemini API returned a retryable status")
			return inference.MarkTransient(err)
		}
		log.Error().Int("code", code).Msg("Gemini API rejected the request")
		return err
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "rate limit") ||
		strings.Contains(errLower, "unavailable") ||
		strings.Contains(errLower, "connection reset") ||
		strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "timeout"):
		return inference.MarkTransient(err)
	default:
		return err
	}
}

// apiErrorCode extracts the HTTP status from a genai.APIError, whether it is
// wrapped by value or by pointer.
func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

func isTransientStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}
