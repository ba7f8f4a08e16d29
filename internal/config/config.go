// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider names accepted by VISION_PROVIDER and TEXT_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderLlama  = "llama"
	ProviderOpenAI = "openai"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	Host string
	Port string

	VisionProvider string
	TextProvider   string
	GeminiModel    string
	LlamaURL       string
	LlamaSeed      int
	OpenAIModel    string
	OpenAIBaseURL  string
	OpenAIRPM      int

	MaxUploadBytes    int64
	MaxImageDimension int
	MaxImagePixels    int
	TempDir           string
	RequestTimeout    time.Duration
	ShutdownTimeout   time.Duration
	RetryMaxAttempts  int
	HashtagMinLength  int

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int

	S3Bucket         string
	MetricsNamespace string
}

// Load reads configuration from the environment, applies defaults and
// validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Host:              getEnv("HOST", ""),
		Port:              getEnv("PORT", "8080"),
		VisionProvider:    strings.ToLower(getEnv("VISION_PROVIDER", ProviderGemini)),
		TextProvider:      strings.ToLower(getEnv("TEXT_PROVIDER", ProviderGemini)),
		GeminiModel:       os.Getenv("GEMINI_MODEL"),
		LlamaURL:          getEnv("LLAMA_URL", "http://127.0.0.1:8081"),
		LlamaSeed:         getEnvInt("LLAMA_SEED", -1),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		OpenAIRPM:         getEnvInt("OPENAI_RPM", 0),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_MB", 32)) << 20,
		MaxImageDimension: getEnvInt("MAX_IMAGE_DIMENSION", 1024),
		MaxImagePixels:    getEnvInt("MAX_IMAGE_PIXELS", 50_000_000),
		TempDir:           os.Getenv("HOOKS_TEMP_DIR"),
		RequestTimeout:    time.Second * time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 120)),
		ShutdownTimeout:   time.Second * time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 15)),
		RetryMaxAttempts:  getEnvInt("RETRY_MAX_ATTEMPTS", 3),
		HashtagMinLength:  getEnvInt("HASHTAG_MIN_LENGTH", 4),
		CORSOrigins:       getEnvList("CORS_ORIGINS", []string{"*"}),
		RateLimitRPS:      getEnvFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", 10),
		S3Bucket:          os.Getenv("MEDIA_BUCKET_NAME"),
		MetricsNamespace:  getEnv("METRICS_NAMESPACE", "MediaHooks"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks provider names and numeric ranges.
func (c *Config) Validate() error {
	switch c.VisionProvider {
	case ProviderGemini, ProviderLlama:
	default:
		return fmt.Errorf("VISION_PROVIDER must be gemini or llama, got %q", c.VisionProvider)
	}
	switch c.TextProvider {
	case ProviderGemini, ProviderLlama, ProviderOpenAI:
	default:
		return fmt.Errorf("TEXT_PROVIDER must be gemini, llama or openai, got %q", c.TextProvider)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.MaxImageDimension < 0 {
		return fmt.Errorf("MAX_IMAGE_DIMENSION must not be negative")
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be positive, got %d", c.MaxImagePixels)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	}
	if c.HashtagMinLength < 1 {
		return fmt.Errorf("HASHTAG_MIN_LENGTH must be at least 1, got %d", c.HashtagMinLength)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// UsesProvider reports whether either capability is served by name.
func (c *Config) UsesProvider(name string) bool {
	return c.VisionProvider == name || c.TextProvider == name
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
