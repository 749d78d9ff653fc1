package generativeAI

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/FACorreiaa/travelx-planner/internal/types"
)

const DefaultModel = "gemini-2.0-flash"

var ErrMissingAPIKey = errors.New("GOOGLE_GEMINI_API_KEY is not set")

// AIClient generates itineraries with the Gemini API.
type AIClient struct {
	client *genai.Client
	model  string
}

// NewAIClient creates a Gemini client. baseURL is only set in tests.
func NewAIClient(ctx context.Context, apiKey, model, baseURL string) (*AIClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &AIClient{client: client, model: model}, nil
}

// Generate satisfies itinerary.LLMClient. opts.Model is ignored in favour of
// the configured Gemini model.
func (ai *AIClient) Generate(ctx context.Context, prompt string, opts types.GenerationOptions) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		TopP:            genai.Ptr(float32(opts.TopP)),
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	return result.Text(), nil
}
