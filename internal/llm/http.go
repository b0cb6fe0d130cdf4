package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// httpClient calls a classification endpoint that accepts {text, userId}
// and answers with either the bare payload or a {success, data, error}
// envelope.
type httpClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

func newHTTPClient(cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("analysis endpoint is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = defaultHTTPClient()
	}
	return &httpClient{
		httpClient: hc,
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
	}, nil
}

// Classify posts the request and returns the decoded payload.
func (c *httpClient) Classify(ctx context.Context, req Request) (any, error) {
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	body, err := postJSON(ctx, c.httpClient, c.endpoint, headers, req)
	if err != nil {
		return nil, err
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, invalidResponse(fmt.Errorf("failed to parse response: %w", err))
	}
	return unwrapEnvelope(payload)
}

// unwrapEnvelope turns a service-reported failure into an error and returns
// the data member of a successful envelope. Anything else passes through.
func unwrapEnvelope(payload any) (any, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return payload, nil
	}

	success, hasSuccess := obj["success"].(bool)
	if msg := envelopeError(obj["error"]); msg != "" && (!hasSuccess || !success) {
		return nil, serviceError(0, errors.New(msg))
	}
	if hasSuccess && !success {
		return nil, serviceError(0, errors.New("service reported failure"))
	}
	if data, ok := obj["data"]; hasSuccess && ok {
		return data, nil
	}
	return payload, nil
}

func envelopeError(v any) string {
	switch e := v.(type) {
	case string:
		return strings.TrimSpace(e)
	case map[string]any:
		if msg, ok := e["message"].(string); ok {
			return strings.TrimSpace(msg)
		}
		return "service reported failure"
	default:
		return ""
	}
}

// postJSON sends body as JSON and returns the raw response body. Transport
// failures become network errors and non-2xx answers become service errors.
func postJSON(ctx context.Context, hc *http.Client, url string, headers map[string]string, body any) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, networkError(fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, serviceError(resp.StatusCode, errors.New(strings.TrimSpace(string(respBody))))
	}
	return respBody, nil
}
