package llm

import (
	"context"
	"net/http"
	"time"
)

// Client sends one piece of journal text to a classification backend and
// returns the decoded payload without interpreting it.
type Client interface {
	Classify(ctx context.Context, req Request) (any, error)
}

// Request is the body sent to the classification service.
type Request struct {
	Text   string `json:"text"`
	UserID string `json:"userId"`
}

// Config selects and configures a classification backend.
type Config struct {
	Provider    string
	Endpoint    string
	APIKey      string
	Model       string
	HTTPClient  *http.Client
	Temperature float64
	MaxTokens   int
	RateLimit   int
}

func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
