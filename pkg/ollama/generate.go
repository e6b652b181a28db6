// Package ollama provides an Ollama-backed llm.Generator for running the
// advisor against a local model.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/WessleyAI/autosphere/pkg/llm"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultModel is a local model that supports structured output.
const DefaultModel = "llama3.2"

// Client implements llm.Generator using Ollama's /api/generate endpoint.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewClient creates an Ollama client. model is used when a request leaves
// Model empty.
func NewClient(baseURL, model string) *Client {
	return &Client{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

type generateReq struct {
	Model  string         `json:"model"`
	Prompt string         `json:"prompt"`
	Stream bool           `json:"stream"`
	Format map[string]any `json:"format,omitempty"`
}

type generateResp struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate implements llm.Generator. The schema is passed as Ollama's
// structured-output format.
func (c *Client) Generate(ctx context.Context, in llm.Request) (string, error) {
	model := in.Model
	if model == "" {
		model = c.model
	}
	r := generateReq{Model: model, Prompt: in.Prompt}
	if in.Schema != nil {
		r.Format = in.Schema.JSONSchema()
	}
	body, _ := json.Marshal(r)
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("ollama generate: status %d", resp.StatusCode)
	}

	var result generateResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ollama generate decode: %w", err)
	}
	return result.Response, nil
}
