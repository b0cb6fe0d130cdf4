package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/Veraticus/mood-journal/internal/mood"
)

// Analyzer validates journal text, sends it to a Client and normalizes the
// answer into a MoodAnalysisResult.
type Analyzer struct {
	client  Client
	limiter *rateLimiter
	logger  *slog.Logger
}

// NewAnalyzer creates an Analyzer for the backend described by cfg.
func NewAnalyzer(cfg Config, logger *slog.Logger) (*Analyzer, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis client: %w", err)
	}
	return NewAnalyzerWithClient(client, cfg.RateLimit, logger), nil
}

// NewAnalyzerWithClient wraps an existing client. A rateLimit of zero or less
// disables rate limiting.
func NewAnalyzerWithClient(client Client, rateLimit int, logger *slog.Logger) *Analyzer {
	a := &Analyzer{
		client: client,
		logger: common.OrDefault(logger),
	}
	if rateLimit > 0 {
		a.limiter = newRateLimiter(rateLimit)
	}
	return a
}

// Analyze scores text for userID. Empty text or an empty userID are rejected
// before any request is made. Every failure after that is an *AnalysisError.
// A payload that carries no recognizable scores is a success with a zero mood.
func (a *Analyzer) Analyze(ctx context.Context, text, userID string) (model.MoodAnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return model.MoodAnalysisResult{}, common.ErrEmptyText
	}
	if strings.TrimSpace(userID) == "" {
		return model.MoodAnalysisResult{}, common.ErrUnauthenticated
	}

	if a.limiter != nil {
		if err := a.limiter.wait(ctx); err != nil {
			return model.MoodAnalysisResult{}, networkError(err)
		}
	}

	start := time.Now()
	raw, err := a.client.Classify(ctx, Request{Text: text, UserID: userID})
	if err != nil {
		var analysisErr *AnalysisError
		if !errors.As(err, &analysisErr) {
			err = networkError(err)
		}
		a.logger.Warn("mood analysis failed",
			"kind", KindOf(err),
			"duration", time.Since(start),
			"error", err)
		return model.MoodAnalysisResult{}, err
	}

	result := mood.Result(raw)
	dominant, score := mood.Dominant(result.Mood)
	a.logger.Debug("mood analysis complete",
		"dominant", dominant,
		"score", score,
		"duration", time.Since(start))
	return result, nil
}
