package inference

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	base := errors.New("status 503")
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", base, false},
		{"marked", MarkTransient(base), true},
		{"marked and wrapped", fmt.Errorf("generate: %w", MarkTransient(base)), true},
		{"network timeout", fmt.Errorf("post: %w", timeoutErr{}), true},
		{"context canceled", MarkTransient(context.Canceled), false},
		{"deadline exceeded", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarkTransient_PreservesChain(t *testing.T) {
	base := errors.New("boom")
	err := MarkTransient(base)
	if !errors.Is(err, base) {
		t.Error("expected errors.Is to find the original error")
	}
	if err.Error() != "boom" {
		t.Errorf("Error() = %q, want %q", err.Error(), "boom")
	}
	if MarkTransient(nil) != nil {
		t.Error("MarkTransient(nil) should be nil")
	}
}
