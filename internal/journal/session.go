package journal

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/mood-journal/internal/auth"
	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/Veraticus/mood-journal/internal/llm"
	"github.com/Veraticus/mood-journal/internal/model"
)

// Analyzer scores journal text. llm.Analyzer implements it.
type Analyzer interface {
	Analyze(ctx context.Context, text, userID string) (model.MoodAnalysisResult, error)
}

// EntryCreator saves drafts. Manager implements it.
type EntryCreator interface {
	Create(ctx context.Context, draft model.Draft) (model.JournalEntry, error)
}

// SessionState is a snapshot of a composition session.
type SessionState struct {
	Err       error
	Result    *model.MoodAnalysisResult
	Text      string
	Analyzing bool
}

// Session composes one entry. It holds at most one analysis in flight:
// starting another, editing the text, saving or discarding cancels the
// current one and any result it still produces is dropped.
type Session struct {
	analyzer Analyzer
	creator  EntryCreator
	identity auth.Identity
	logger   *slog.Logger
	cancel   context.CancelFunc
	result   *model.MoodAnalysisResult
	err      error
	text     string
	retry    common.RetryOptions
	timeout  time.Duration
	gen      uint64
	mu       sync.Mutex
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRetry retries analyses that fail with a network or service error.
func WithRetry(opts common.RetryOptions) SessionOption {
	return func(s *Session) { s.retry = opts }
}

// WithTimeout bounds each analysis, retries included.
func WithTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.timeout = d }
}

// NewSession creates an empty composition session.
func NewSession(analyzer Analyzer, creator EntryCreator, identity auth.Identity, logger *slog.Logger, opts ...SessionOption) *Session {
	s := &Session{
		analyzer: analyzer,
		creator:  creator,
		identity: identity,
		logger:   common.OrDefault(logger),
		retry:    common.RetryOptions{MaxAttempts: 1},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := SessionState{
		Text:      s.text,
		Err:       s.err,
		Analyzing: s.cancel != nil,
	}
	if s.result != nil {
		r := *s.result
		state.Result = &r
	}
	return state
}

// SetText replaces the draft text. A changed text invalidates the held
// result and any analysis in flight.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if text == s.text {
		return
	}
	s.text = text
	s.result = nil
	s.err = nil
	s.supersedeLocked()
}

// AppendText adds a line to the draft.
func (s *Session) AppendText(line string) {
	s.mu.Lock()
	text := s.text
	s.mu.Unlock()
	if text != "" {
		text += "\n"
	}
	s.SetText(text + line)
}

func (s *Session) supersedeLocked() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Analyze scores the current text and holds the result. If the session moved
// on while the analysis ran, the result is dropped and common.ErrSuperseded
// is returned. Run it in a goroutine to keep the caller responsive.
func (s *Session) Analyze(ctx context.Context) (model.MoodAnalysisResult, error) {
	s.mu.Lock()
	text := s.text
	s.supersedeLocked()
	gen := s.gen
	var (
		actx   context.Context
		cancel context.CancelFunc
	)
	if s.timeout > 0 {
		actx, cancel = context.WithTimeout(ctx, s.timeout)
	} else {
		actx, cancel = context.WithCancel(ctx)
	}
	s.cancel = cancel
	s.err = nil
	s.mu.Unlock()

	userID := ""
	if s.identity != nil {
		userID = s.identity.CurrentUserID()
	}

	retry := s.retry
	if retry.Logger == nil {
		retry.Logger = s.logger
	}
	var result model.MoodAnalysisResult
	err := common.WithRetry(actx, func() error {
		r, err := s.analyzer.Analyze(actx, text, userID)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: retryable(actx, err)}
		}
		result = r
		return nil
	}, retry)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.Debug("dropping superseded analysis result", "generation", gen)
		return model.MoodAnalysisResult{}, common.ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		s.err = err
		return model.MoodAnalysisResult{}, err
	}
	s.result = &result
	return result, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch llm.KindOf(err) {
	case llm.KindNetwork, llm.KindService:
		return true
	}
	return false
}

// Save creates an entry from the text and whatever result is held right now.
// It never waits for an analysis in flight. Once the entry is stored the
// session is emptied and that analysis is canceled; if the save fails the
// analysis carries on.
func (s *Session) Save(ctx context.Context) (model.JournalEntry, error) {
	s.mu.Lock()
	text := s.text
	var result *model.MoodAnalysisResult
	if s.result != nil {
		r := *s.result
		result = &r
	}
	s.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return model.JournalEntry{}, common.ErrEmptyText
	}

	entry, err := s.creator.Create(ctx, model.DraftFromResult(text, result))
	if err != nil {
		return model.JournalEntry{}, err
	}

	s.mu.Lock()
	if s.text == text {
		s.supersedeLocked()
		s.text = ""
		s.result = nil
		s.err = nil
	}
	s.mu.Unlock()
	return entry, nil
}

// Discard throws the draft away.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeLocked()
	s.text = ""
	s.result = nil
	s.err = nil
}

// IsSuperseded reports whether err means an analysis result was dropped.
func IsSuperseded(err error) bool {
	return errors.Is(err, common.ErrSuperseded)
}
