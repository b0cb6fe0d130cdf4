package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const anthropicEndpoint = "https://api.anthropic.com/v1/messages"

// anthropicClient asks a Claude model to score the entry.
type anthropicClient struct {
	httpClient  *http.Client
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 300
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = anthropicEndpoint
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = defaultHTTPClient()
	}

	return &anthropicClient{
		httpClient:  hc,
		endpoint:    endpoint,
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Classify sends the entry text to the messages API.
func (c *anthropicClient) Classify(ctx context.Context, req Request) (any, error) {
	requestBody := map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"system":      systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": req.Text},
		},
		"metadata": map[string]string{"user_id": req.UserID},
	}

	body, err := postJSON(ctx, c.httpClient, c.endpoint, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}, requestBody)
	if err != nil {
		return nil, err
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, invalidResponse(fmt.Errorf("failed to parse response: %w", err))
	}
	for _, block := range response.Content {
		if block.Type == "" || block.Type == "text" {
			return decodeModelContent(block.Text)
		}
	}
	return nil, invalidResponse(fmt.Errorf("no content in response"))
}

// anthropicResponse represents the Anthropic API response structure.
type anthropicResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}
