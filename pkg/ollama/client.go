// Package ollama implements llm.Service against Ollama's HTTP API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Arjun3125/doctrine-ingest/pkg/llm"
)

// Client is an Ollama-backed llm.Service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an Ollama client rooted at baseURL (e.g. http://localhost:11434).
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

type generateReq struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateResp struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate implements llm.Service. It sets Format: "json" when req.JSONMode
// is set, asking Ollama to constrain output to valid JSON.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body := generateReq{
		Model:  req.Model,
		System: req.System,
		Prompt: req.Prompt,
		Stream: false,
	}
	if req.JSONMode {
		body.Format = "json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", llm.ErrTimeout, err)
		}
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", llm.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama generate: status %d", resp.StatusCode)
	}

	var out generateResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", llm.ErrInvalidJSON, err)
	}
	return out.Response, nil
}

type embedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResp struct {
	Embedding []float64 `json:"embedding"`
}

// Embed implements llm.Service. Ollama's classic embeddings endpoint takes
// one prompt per call, so batches are issued sequentially; callers that
// need concurrency compose Embed with pkg/fn.ParMap.
func (c *Client) Embed(ctx context.Context, model string, input []string) ([][]float32, error) {
	out := make([][]float32, len(input))
	for i, text := range input {
		vec, err := c.embedOne(ctx, model, text)
		if err != nil {
			return nil, fmt.Errorf("ollama embed [%d]: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func (c *Client) embedOne(ctx context.Context, model, text string) ([]float32, error) {
	payload, err := json.Marshal(embedReq{Model: model, Prompt: text})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", llm.ErrTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, llm.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embed: status %d", resp.StatusCode)
	}

	var result embedResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrInvalidJSON, err)
	}

	vec := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

var _ llm.Service = (*Client)(nil)

// defaultHTTPTimeout bounds Generate calls whose request sets no Timeout.
const defaultHTTPTimeout = 60 * time.Second
