package chat

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/fpang/media-hooks/internal/inference"
)

func TestGetModelName(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "")
	if got := GetModelName(); got != DefaultModelName {
		t.Errorf("GetModelName() = %q, want %q", got, DefaultModelName)
	}

	t.Setenv("GEMINI_MODEL", ModelGemini25Flash)
	if got := GetModelName(); got != ModelGemini25Flash {
		t.Errorf("GetModelName() = %q, want %q", got, ModelGemini25Flash)
	}
}

func TestGenerateConfig(t *testing.T) {
	config := generateConfig(inference.DecodingParams{
		MaxTokens:         30,
		MinTokens:         3,
		Sample:            true,
		Temperature:       0.85,
		RepetitionPenalty: 1.5,
	})

	if config.MaxOutputTokens != 30 {
		t.Errorf("MaxOutputTokens = %d, want 30", config.MaxOutputTokens)
	}
	if config.Temperature == nil || *config.Temperature != float32(0.85) {
		t.Errorf("Temperature = %v, want 0.85", config.Temperature)
	}
	if config.FrequencyPenalty == nil || *config.FrequencyPenalty != 0.5 {
		t.Errorf("FrequencyPenalty = %v, want 0.5", config.FrequencyPenalty)
	}
	if config.SystemInstruction == nil || len(config.SystemInstruction.Parts) != 1 {
		t.Error("expected hook system instruction")
	}
}

func TestGenerateConfig_Greedy(t *testing.T) {
	config := generateConfig(inference.DecodingParams{MaxTokens: 10, Temperature: 0.9, RepetitionPenalty: 1})
	if config.Temperature == nil || *config.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0 when sampling is off", config.Temperature)
	}
	if config.FrequencyPenalty != nil {
		t.Errorf("FrequencyPenalty = %v, want nil for penalty 1.0", *config.FrequencyPenalty)
	}
}

func TestDescribeConfig(t *testing.T) {
	config := describeConfig(inference.DescribeOptions{MaxTokens: 50})
	if config.MaxOutputTokens != 50 {
		t.Errorf("MaxOutputTokens = %d, want 50", config.MaxOutputTokens)
	}
	if config.Temperature == nil || *config.Temperature != 0 {
		t.Error("describe must be deterministic")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
	}{
		{"rate limited", genai.APIError{Code: 429, Message: "quota"}, true},
		{"server error", fmt.Errorf("call: %w", genai.APIError{Code: 503}), true},
		{"pointer form", &genai.APIError{Code: 500}, true},
		{"bad request", genai.APIError{Code: 400, Message: "bad image"}, false},
		{"forbidden", genai.APIError{Code: 403}, false},
		{"network message", errors.New("dial tcp: connection refused"), true},
		{"unknown", errors.New("something odd"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if inference.IsTransient(got) != tt.wantTransient {
				t.Errorf("IsTransient(classifyError()) = %v, want %v", !tt.wantTransient, tt.wantTransient)
			}
			if !strings.Contains(got.Error(), tt.err.Error()) {
				t.Errorf("classified error %q lost the original %q", got, tt.err)
			}
		})
	}

	if classifyError(nil) != nil {
		t.Error("classifyError(nil) should be nil")
	}
}

func TestNewGeminiClient_EmptyKey(t *testing.T) {
	if _, err := NewGeminiClient(t.Context(), ""); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestDisablesThinking(t *testing.T) {
	if !disablesThinking(ModelGemini25FlashLite) {
		t.Errorf("%s should disable thinking", ModelGemini25FlashLite)
	}
	if disablesThinking(ModelGemini3FlashPreview) {
		t.Errorf("%s should keep its default thinking config", ModelGemini3FlashPreview)
	}
}
