package itinerary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/FACorreiaa/travelx-planner/internal/api"
	"github.com/FACorreiaa/travelx-planner/internal/types"
)

const (
	DefaultOllamaURL = "http://localhost:11434/api/generate"
	DefaultTimeout   = 180 * time.Second
)

var errMissingResponse = errors.New("response field missing")

var _ LLMClient = (*OllamaClient)(nil)

// LLMClient sends a single non-streaming completion request.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, opts types.GenerationOptions) (string, error)
}

// OllamaClient calls the /api/generate endpoint of a local Ollama server.
type OllamaClient struct {
	client   *http.Client
	endpoint string
}

func NewOllamaClient(endpoint string, timeout time.Duration) *OllamaClient {
	if endpoint == "" {
		endpoint = DefaultOllamaURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OllamaClient{
		client:   api.NewHTTPClient(timeout),
		endpoint: endpoint,
	}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaResponse struct {
	Response *string `json:"response"`
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string, opts types.GenerationOptions) (string, error) {
	payload, err := json.Marshal(ollamaRequest{
		Model:  opts.Model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
			NumPredict:  opts.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out ollamaResponse
	if err := api.DoJSON(c.client, req, &out); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	if out.Response == nil {
		return "", fmt.Errorf("ollama: %w", errMissingResponse)
	}
	return *out.Response, nil
}
