package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Observe(t *testing.T) {
	c := NewCollector("test")
	c.Observe(Outcome{Source: "upload", MediaKind: "image", Describe: 300 * time.Millisecond})
	c.Observe(Outcome{Source: "upload", MediaKind: "image"})
	c.Observe(Outcome{Source: "upload", MediaKind: "video", ErrorKind: "frame_extraction"})

	if got := testutil.ToFloat64(c.runs.WithLabelValues("upload", "image", "")); got != 2 {
		t.Errorf("successful image runs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.runs.WithLabelValues("upload", "video", "frame_extraction")); got != 1 {
		t.Errorf("failed video runs = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.stages); got != 4 {
		t.Errorf("stage series = %d, want 4", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("test")
	c.ObserveHTTP("/generate", "200", 0.5)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{"test_http_request_duration_seconds", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
