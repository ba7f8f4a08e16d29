package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/genai"
)

func TestGetAPIKeyFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "  test-api-key-12345\n")

	key, err := GetAPIKey(GeminiCredential)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "test-api-key-12345" {
		t.Errorf("expected trimmed key, got %q", key)
	}
}

func TestGetAPIKeyNoSource(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	_, err := GetAPIKey(OpenAICredential)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestGetCredentialPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := getCredentialPath("gemini.gpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(home, ".media-hooks", "gemini.gpg"); path != want {
		t.Errorf("expected path %q, got %q", want, path)
	}
}

func TestGetFromGPGFileNotFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := getFromGPG("gemini.gpg"); err == nil {
		t.Error("expected error when credentials file does not exist")
	}
}

func TestPassphraseFilePermissions(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, credentialDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, ".gpg-passphrase")

	if _, ok := passphraseFile(); ok {
		t.Error("missing passphrase file reported as usable")
	}

	if err := os.WriteFile(path, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := passphraseFile(); ok {
		t.Error("world-readable passphrase file should be skipped")
	}

	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}
	if got, ok := passphraseFile(); !ok || got != path {
		t.Errorf("passphraseFile() = %q, %v; want %q, true", got, ok, path)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ValidationErrorType
	}{
		{"api error 403", genai.APIError{Code: 403, Message: "denied"}, ErrTypeInvalidKey},
		{"api error pointer 429", &genai.APIError{Code: 429}, ErrTypeQuotaExceeded},
		{"api error 503", genai.APIError{Code: 503}, ErrTypeNetworkError},
		{"api error 418", genai.APIError{Code: 418, Message: "teapot"}, ErrTypeUnknown},
		{"invalid key message", errors.New("API key not valid. Please pass a valid API key."), ErrTypeInvalidKey},
		{"quota message", errors.New("Resource exhausted"), ErrTypeQuotaExceeded},
		{"network message", errors.New("dial tcp: no such host"), ErrTypeNetworkError},
		{"other", errors.New("boom"), ErrTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if got.Type != tt.want {
				t.Errorf("classifyError(%v).Type = %v, want %v", tt.err, got.Type, tt.want)
			}
			if got.Unwrap() == nil {
				t.Error("classified error should wrap the cause")
			}
		})
	}
	if classifyError(nil) != nil {
		t.Error("classifyError(nil) should be nil")
	}
}
