package llama

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fpang/media-hooks/internal/inference"
)

type recordedRequest struct {
	path string
	body map[string]any
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		mu.Lock()
		reqs = append(reqs, recordedRequest{path: r.URL.Path, body: body})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func TestGenerate(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, `{"content":" Sunny Paws Park Day","stop":true,"tokens_predicted":6}`)
	c := New(srv.URL, 42, nil)

	got, err := c.Generate(context.Background(), "Write a cool, short 4-word title for this: a dog", inference.DecodingParams{
		MaxTokens:         30,
		MinTokens:         3,
		Sample:            true,
		Temperature:       0.8,
		RepetitionPenalty: 1.5,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.Text != " Sunny Paws Park Day" || got.TokenCount != 6 {
		t.Errorf("Generate() = %+v", got)
	}

	if len(*reqs) != 1 {
		t.Fatalf("server saw %d requests, want 1", len(*reqs))
	}
	req := (*reqs)[0]
	if req.path != "/completion" {
		t.Errorf("path = %q, want /completion", req.path)
	}
	if req.body["n_predict"] != float64(30) {
		t.Errorf("n_predict = %v, want 30", req.body["n_predict"])
	}
	if req.body["temperature"] != 0.8 {
		t.Errorf("temperature = %v, want 0.8", req.body["temperature"])
	}
	if req.body["repeat_penalty"] != 1.5 {
		t.Errorf("repeat_penalty = %v, want 1.5", req.body["repeat_penalty"])
	}
	if req.body["seed"] != float64(42) {
		t.Errorf("seed = %v, want 42", req.body["seed"])
	}
	prompt, _ := req.body["prompt"].(string)
	if !strings.Contains(prompt, "a dog") || !strings.HasSuffix(prompt, promptSuffix) {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestDescribe(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, `{"content":"a dog playing in the park\n","stop":true,"tokens_predicted":7}`)
	c := New(srv.URL, 0, nil)

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	got, err := c.Describe(context.Background(), img, inference.DescribeOptions{MaxTokens: 50, Prompt: "Describe."})
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if got != "a dog playing in the park" {
		t.Errorf("Describe() = %q", got)
	}

	body := (*reqs)[0].body
	if body["temperature"] != float64(0) {
		t.Errorf("temperature = %v, want 0", body["temperature"])
	}
	if body["n_predict"] != float64(50) {
		t.Errorf("n_predict = %v, want 50", body["n_predict"])
	}
	images, ok := body["image_data"].([]any)
	if !ok || len(images) != 1 {
		t.Fatalf("image_data = %v", body["image_data"])
	}
	prompt, _ := body["prompt"].(string)
	if !strings.Contains(prompt, "[img-10]Describe.") {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestSendRequest_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{"overloaded", http.StatusServiceUnavailable, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, `{"error":"nope"}`)
			c := New(srv.URL, 0, nil)
			_, err := c.Generate(context.Background(), "hi", inference.DecodingParams{MaxTokens: 5})
			if err == nil {
				t.Fatal("expected error")
			}
			if inference.IsTransient(err) != tt.wantTransient {
				t.Errorf("IsTransient() = %v, want %v", !tt.wantTransient, tt.wantTransient)
			}
		})
	}
}

func TestSendRequest_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := New(addr, 0, nil)
	_, err := c.Generate(context.Background(), "hi", inference.DecodingParams{MaxTokens: 5})
	if err == nil {
		t.Fatal("expected error")
	}
	if !inference.IsTransient(err) {
		t.Errorf("connection failure should be transient: %v", err)
	}
}

func TestIsHealthy(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"status":"ok"}`)
	if !New(srv.URL, 0, nil).IsHealthy(context.Background()) {
		t.Error("expected healthy server")
	}

	down, _ := newServer(t, http.StatusServiceUnavailable, `{}`)
	if New(down.URL, 0, nil).IsHealthy(context.Background()) {
		t.Error("expected unhealthy server")
	}
}
