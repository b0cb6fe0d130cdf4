package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/mood-journal/internal/auth"
	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/Veraticus/mood-journal/internal/llm"
	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/Veraticus/mood-journal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analysisReply struct {
	err    error
	result model.MoodAnalysisResult
}

// gatedAnalyzer blocks each call until the test releases it.
type gatedAnalyzer struct {
	replies []chan analysisReply
	texts   []string
	calls   int
	mu      sync.Mutex
}

func (a *gatedAnalyzer) expect() chan analysisReply {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch := make(chan analysisReply, 1)
	a.replies = append(a.replies, ch)
	return ch
}

func (a *gatedAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Analyze ignores cancellation so late results really do arrive late.
func (a *gatedAnalyzer) Analyze(_ context.Context, text, _ string) (model.MoodAnalysisResult, error) {
	a.mu.Lock()
	ch := a.replies[a.calls]
	a.calls++
	a.texts = append(a.texts, text)
	a.mu.Unlock()
	reply := <-ch
	return reply.result, reply.err
}

type recordingCreator struct {
	err    error
	drafts []model.Draft
	mu     sync.Mutex
}

func (c *recordingCreator) Create(_ context.Context, draft model.Draft) (model.JournalEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return model.JournalEntry{}, c.err
	}
	c.drafts = append(c.drafts, draft)
	entry := model.JournalEntry{ID: "e1", Text: draft.Text}
	if draft.Mood != nil {
		entry.Mood = *draft.Mood
	}
	return entry, nil
}

func happyResult(score float64) model.MoodAnalysisResult {
	return model.MoodAnalysisResult{Mood: model.Mood{Happiness: score}, Keywords: []string{}}
}

func TestSession_SupersededAnalysisIsDiscarded(t *testing.T) {
	analyzer := &gatedAnalyzer{}
	first := analyzer.expect()
	second := analyzer.expect()
	s := NewSession(analyzer, &recordingCreator{}, auth.NewStatic("alice"), nil)
	s.SetText("A long day")
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Analyze(ctx)
		firstDone <- err
	}()
	require.Eventually(t, func() bool { return analyzer.callCount() == 1 }, time.Second, time.Millisecond)

	secondDone := make(chan error, 1)
	go func() {
		_, err := s.Analyze(ctx)
		secondDone <- err
	}()
	require.Eventually(t, func() bool { return analyzer.callCount() == 2 }, time.Second, time.Millisecond)

	second <- analysisReply{result: happyResult(0.2)}
	require.NoError(t, <-secondDone)

	first <- analysisReply{result: happyResult(0.9)}
	assert.ErrorIs(t, <-firstDone, common.ErrSuperseded)

	state := s.State()
	require.NotNil(t, state.Result)
	assert.InDelta(t, 0.2, state.Result.Mood.Happiness, 1e-9)
	assert.False(t, state.Analyzing)
}

func TestSession_EditingTextDropsResult(t *testing.T) {
	analyzer := &gatedAnalyzer{}
	reply := analyzer.expect()
	s := NewSession(analyzer, &recordingCreator{}, auth.NewStatic("alice"), nil)
	s.SetText("draft one")

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return s.State().Analyzing && analyzer.callCount() == 1 }, time.Second, time.Millisecond)

	s.AppendText("and more")
	assert.False(t, s.State().Analyzing)
	reply <- analysisReply{result: happyResult(0.9)}
	assert.True(t, IsSuperseded(<-done))
	assert.Nil(t, s.State().Result)
	assert.Equal(t, "draft one\nand more", s.State().Text)
}

func TestSession_SaveDoesNotWait(t *testing.T) {
	analyzer := &gatedAnalyzer{}
	held := analyzer.expect()
	pending := analyzer.expect()
	creator := &recordingCreator{}
	s := NewSession(analyzer, creator, auth.NewStatic("alice"), nil)
	ctx := context.Background()

	s.SetText("Walked by the sea")
	held <- analysisReply{result: happyResult(0.6)}
	_, err := s.Analyze(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return analyzer.callCount() == 2 }, time.Second, time.Millisecond)

	entry, err := s.Save(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, entry.Mood.Happiness, 1e-9, "save uses the held result")

	pending <- analysisReply{result: happyResult(0.1)}
	assert.ErrorIs(t, <-done, common.ErrSuperseded)

	require.Len(t, creator.drafts, 1)
	assert.Equal(t, "Walked by the sea", creator.drafts[0].Text)
	assert.Equal(t, SessionState{}, s.State())
}

func TestSession_SaveWithoutAnalysis(t *testing.T) {
	creator := &recordingCreator{}
	s := NewSession(&gatedAnalyzer{}, creator, auth.NewStatic("alice"), nil)

	_, err := s.Save(context.Background())
	assert.ErrorIs(t, err, common.ErrEmptyText)
	assert.Empty(t, creator.drafts)

	s.SetText("Just writing")
	entry, err := s.Save(context.Background())
	require.NoError(t, err)
	assert.True(t, entry.Mood.IsZero())
	require.Len(t, creator.drafts, 1)
	assert.Nil(t, creator.drafts[0].Mood)

	creator.err = repoError(KindNetwork, errors.New("offline"))
	s.SetText("Try again later")
	_, err = s.Save(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Try again later", s.State().Text, "a failed save keeps the draft")
}

func TestSession_FailedSaveKeepsAnalysisRunning(t *testing.T) {
	analyzer := &gatedAnalyzer{}
	reply := analyzer.expect()
	creator := &recordingCreator{err: repoError(KindNetwork, errors.New("offline"))}
	s := NewSession(analyzer, creator, auth.NewStatic("alice"), nil)
	ctx := context.Background()
	s.SetText("Finished the marathon")

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return analyzer.callCount() == 1 }, time.Second, time.Millisecond)

	_, err := s.Save(ctx)
	require.Error(t, err)
	assert.True(t, s.State().Analyzing)

	reply <- analysisReply{result: happyResult(0.8)}
	require.NoError(t, <-done)

	state := s.State()
	require.NotNil(t, state.Result)
	assert.InDelta(t, 0.8, state.Result.Mood.Happiness, 1e-9)

	creator.err = nil
	entry, err := s.Save(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, entry.Mood.Happiness, 1e-9)
}

func TestSession_Discard(t *testing.T) {
	analyzer := &gatedAnalyzer{}
	analyzer.expect() <- analysisReply{result: happyResult(0.5)}
	s := NewSession(analyzer, &recordingCreator{}, auth.NewStatic("alice"), nil)
	s.SetText("never mind")
	_, err := s.Analyze(context.Background())
	require.NoError(t, err)

	s.Discard()
	assert.Equal(t, SessionState{}, s.State())
}

func TestSession_RetriesTransientFailures(t *testing.T) {
	analyzer := &gatedAnalyzer{}
	analyzer.expect() <- analysisReply{err: &llm.AnalysisError{Kind: llm.KindNetwork, Err: errors.New("reset")}}
	analyzer.expect() <- analysisReply{result: happyResult(0.7)}
	s := NewSession(analyzer, &recordingCreator{}, auth.NewStatic("alice"), nil,
		WithRetry(common.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond}))
	s.SetText("second try")

	result, err := s.Analyze(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.7, result.Mood.Happiness, 1e-9)
	assert.Equal(t, 2, analyzer.callCount())
}

func TestSession_DoesNotRetryInvalidResponse(t *testing.T) {
	analyzer := &gatedAnalyzer{}
	analyzer.expect() <- analysisReply{err: &llm.AnalysisError{Kind: llm.KindInvalidResponse, Err: errors.New("garbage")}}
	s := NewSession(analyzer, &recordingCreator{}, auth.NewStatic("alice"), nil,
		WithRetry(common.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond}))
	s.SetText("hmm")

	_, err := s.Analyze(context.Background())
	assert.Equal(t, llm.KindInvalidResponse, llm.KindOf(err))
	assert.Equal(t, 1, analyzer.callCount())
	assert.Equal(t, llm.KindInvalidResponse, llm.KindOf(s.State().Err))
}

type fixedClient struct {
	payload any
}

func (c fixedClient) Classify(context.Context, llm.Request) (any, error) {
	return c.payload, nil
}

// End to end: classifier payload through the analyzer, session, manager,
// repository and SQLite store.
func TestSession_HappyEntryEndToEnd(t *testing.T) {
	ctx := context.Background()
	identity := auth.NewStatic("alice")
	db := testutil.SetupTestDB(t)
	repo := NewRepository(db.Storage, identity, nil)
	manager := NewManager(repo, identity, nil)
	analyzer := llm.NewAnalyzerWithClient(fixedClient{payload: map[string]any{"happiness": 0.9, "fear": 0.1}}, 0, nil)

	s := NewSession(analyzer, manager, identity, nil)
	s.SetText("I feel happy")
	_, err := s.Analyze(ctx)
	require.NoError(t, err)

	entry, err := s.Save(ctx)
	require.NoError(t, err)

	stored, err := repo.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, stored.Mood.Happiness, 1e-9)
	assert.InDelta(t, 0.1, stored.Mood.Fear, 1e-9)
	assert.Zero(t, stored.Mood.Sadness)
	assert.Zero(t, stored.Mood.Anger)
	assert.Zero(t, stored.Mood.Surprise)
	assert.Zero(t, stored.Mood.Disgust)

	require.Len(t, manager.State().Entries, 1)
	assert.Equal(t, entry.ID, manager.State().Entries[0].ID)
}
