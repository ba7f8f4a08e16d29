package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func captureJSON(t *testing.T) *bytes.Buffer {
	t.Helper()
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	Configure("debug", "json", &buf)
	return &buf
}

func TestConfigure_JSON(t *testing.T) {
	buf := captureJSON(t)
	log.Info().Str("k", "v").Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v: %q", err, buf.String())
	}
	if line["message"] != "hello" || line["k"] != "v" || line["level"] != "info" {
		t.Errorf("unexpected log line: %v", line)
	}
	if _, ok := line["time"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestStartupLogger(t *testing.T) {
	buf := captureJSON(t)

	NewStartupLogger("hooks-web").
		CommitHash("abc123").
		Provider("vision", "gemini/gemini-2.5-flash-lite").
		Provider("text", "llama").
		Feature("video", true).
		Config("port", "8080").
		InitDuration(15 * time.Millisecond).
		Log()

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if line["message"] != "Startup complete" {
		t.Errorf("message = %v", line["message"])
	}
	process, _ := line["process"].(map[string]any)
	if process["name"] != "hooks-web" || process["commitHash"] != "abc123" {
		t.Errorf("process = %v", process)
	}
	providers, _ := line["providers"].(map[string]any)
	if providers["text"] != "llama" {
		t.Errorf("providers = %v", providers)
	}
	features, _ := line["features"].(map[string]any)
	if features["video"] != true {
		t.Errorf("features = %v", features)
	}
	config, _ := line["config"].(map[string]any)
	if config["port"] != "8080" {
		t.Errorf("config = %v", config)
	}
}
