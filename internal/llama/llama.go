// Package llama talks to a llama.cpp server (/completion endpoint) for both
// image description and hook generation.
package llama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"maps"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/media-hooks/internal/filehandler"
	"github.com/fpang/media-hooks/internal/inference"
)

const (
	promptPreamble = `This is a conversation between User and Llama, a friendly chatbot. Llama writes short social media copy and replies with the requested text only.

User:`
	promptSuffix = `
Llama:`

	imagePreamble = `A chat between a curious human and an artificial intelligence assistant. The assistant gives short, neutral, factual answers.
USER:`
	imageSuffix = `
ASSISTANT:`

	imageID          = 10
	imageJPEGQuality = 90
)

type jsonmap map[string]any

// Sampling defaults from the llama.cpp server UI. Per-call params override
// n_predict, temperature and repeat_penalty.
var defaultparams = jsonmap{
	"n_probs":           0,
	"stop":              []string{"</s>", "Llama:", "User:", "USER:", "\n\n"},
	"repeat_last_n":     256,
	"top_k":             40,
	"top_p":             0.9,
	"typical_p":         1,
	"presence_penalty":  0,
	"frequency_penalty": 0,
	"mirostat":          0,
	"slot_id":           -1,
	"cache_prompt":      true,
}

// Client is a Describer and Generator backed by a llama.cpp server.
type Client struct {
	srvAddr string
	seed    int
	client  *http.Client
}

var (
	_ inference.Describer = (*Client)(nil)
	_ inference.Generator = (*Client)(nil)
)

// New creates a client for the server at srvAddr (e.g. http://localhost:8081).
// A nil httpClient gets a 60 second timeout.
func New(srvAddr string, seed int, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		srvAddr: strings.TrimRight(srvAddr, "/"),
		seed:    seed,
		client:  httpClient,
	}
}

func (l *Client) Name() string { return "llama" }

// IsHealthy reports whether the server answers its /health endpoint.
func (l *Client) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.srvAddr+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Describe sends the image as base64 image_data with greedy decoding.
func (l *Client) Describe(ctx context.Context, img image.Image, opts inference.DescribeOptions) (string, error) {
	data, err := filehandler.EncodeJPEG(img, imageJPEGQuality)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("%s[img-%d]%s%s", imagePreamble, imageID, opts.Prompt, imageSuffix)
	keys := jsonmap{
		"temperature": 0,
		"image_data": []jsonmap{
			{"data": base64.StdEncoding.EncodeToString(data), "id": imageID},
		},
	}
	if opts.MaxTokens > 0 {
		keys["n_predict"] = opts.MaxTokens
	}

	out, err := l.sendRequest(ctx, prompt, keys)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Content), nil
}

// Generate runs a text completion. llama.cpp has no minimum length control,
// so MinTokens is not sent.
func (l *Client) Generate(ctx context.Context, prompt string, params inference.DecodingParams) (inference.Generation, error) {
	keys := jsonmap{
		"temperature":    params.Temperature,
		"repeat_penalty": params.RepetitionPenalty,
	}
	if !params.Sample {
		keys["temperature"] = 0
	}
	if params.MaxTokens > 0 {
		keys["n_predict"] = params.MaxTokens
	}

	out, err := l.sendRequest(ctx, promptPreamble+prompt+promptSuffix, keys)
	if err != nil {
		return inference.Generation{}, err
	}
	return inference.Generation{Text: out.Content, TokenCount: out.TokensPredicted}, nil
}

type completionResponse struct {
	Content         string `json:"content"`
	Stop            bool   `json:"stop"`
	TokensPredicted int    `json:"tokens_predicted"`
}

func (l *Client) sendRequest(ctx context.Context, prompt string, keys jsonmap) (*completionResponse, error) {
	data := maps.Clone(defaultparams)
	maps.Copy(data, keys)
	data["prompt"] = prompt
	data["stream"] = false
	data["seed"] = l.seed

	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&data); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.srvAddr+"/completion", buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return nil, inference.MarkTransient(fmt.Errorf("llama request: %w", err))
		}
		return nil, fmt.Errorf("llama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("llama server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, inference.MarkTransient(err)
		}
		return nil, err
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode llama response: %w", err)
	}

	log.Debug().
		Int("tokens", out.TokensPredicted).
		Int("response_length", len(out.Content)).
		Dur("duration", time.Since(start)).
		Msg("llama.cpp completion received")

	return &out, nil
}
