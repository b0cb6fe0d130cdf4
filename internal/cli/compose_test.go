package cli

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/mood-journal/internal/auth"
	"github.com/Veraticus/mood-journal/internal/journal"
	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	err  error
	wait func()
	line string
}

// scriptedReader replays steps, then reports end of input.
type scriptedReader struct {
	steps []step
	next  int
}

func (r *scriptedReader) Readline() (string, error) {
	if r.next >= len(r.steps) {
		return "", io.EOF
	}
	s := r.steps[r.next]
	r.next++
	if s.wait != nil {
		s.wait()
	}
	return s.line, s.err
}

type fixedAnalyzer struct {
	err    error
	result model.MoodAnalysisResult
}

func (a fixedAnalyzer) Analyze(context.Context, string, string) (model.MoodAnalysisResult, error) {
	return a.result, a.err
}

type memoryCreator struct {
	drafts []model.Draft
	mu     sync.Mutex
}

func (c *memoryCreator) Create(_ context.Context, d model.Draft) (model.JournalEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drafts = append(c.drafts, d)
	return model.JournalEntry{ID: "e1", Text: d.Text}, nil
}

func newComposeSession(analyzer journal.Analyzer, creator *memoryCreator) *journal.Session {
	return journal.NewSession(analyzer, creator, auth.NewStatic("alice"), nil)
}

func TestComposer_AnalyzeAndSave(t *testing.T) {
	creator := &memoryCreator{}
	session := newComposeSession(fixedAnalyzer{result: model.MoodAnalysisResult{
		Mood:     model.Mood{Happiness: 0.9, Fear: 0.1},
		Keywords: []string{"sea"},
	}}, creator)

	analyzed := func() {
		require.Eventually(t, func() bool { return session.State().Result != nil }, time.Second, time.Millisecond)
	}
	reader := &scriptedReader{steps: []step{
		{line: "Walked by the sea"},
		{line: "It was calm"},
		{line: "/analyze"},
		{line: "/show", wait: analyzed},
		{line: "/save"},
	}}
	out := &syncBuffer{}

	require.NoError(t, NewComposer(session, reader, out).Run(context.Background()))

	require.Len(t, creator.drafts, 1)
	draft := creator.drafts[0]
	assert.Equal(t, "Walked by the sea\nIt was calm", draft.Text)
	require.NotNil(t, draft.Mood)
	assert.InDelta(t, 0.9, draft.Mood.Happiness, 1e-9)

	output := out.String()
	assert.Contains(t, output, "90%")
	assert.Contains(t, output, "keywords:   sea")
	assert.Contains(t, output, "Saved entry e1")
	assert.Equal(t, journal.SessionState{}, session.State())
}

func TestComposer_AnalyzeEmptyDraft(t *testing.T) {
	session := newComposeSession(fixedAnalyzer{}, &memoryCreator{})
	reader := &scriptedReader{steps: []step{{line: "/analyze"}, {line: "/save"}}}
	out := &syncBuffer{}

	require.NoError(t, NewComposer(session, reader, out).Run(context.Background()))
	assert.Contains(t, out.String(), "Write something first.")
}

func TestComposer_AnalysisFailure(t *testing.T) {
	creator := &memoryCreator{}
	session := newComposeSession(fixedAnalyzer{err: errors.New("offline")}, creator)
	failed := func() {
		require.Eventually(t, func() bool {
			s := session.State()
			return s.Err != nil && !s.Analyzing
		}, time.Second, time.Millisecond)
	}
	reader := &scriptedReader{steps: []step{
		{line: "rough day"},
		{line: "/analyze"},
		{line: "/save", wait: failed},
	}}
	out := &syncBuffer{}

	require.NoError(t, NewComposer(session, reader, out).Run(context.Background()))
	require.Len(t, creator.drafts, 1, "an entry can be saved without analysis")
	assert.Nil(t, creator.drafts[0].Mood)
}

func TestComposer_InterruptClearsThenQuits(t *testing.T) {
	creator := &memoryCreator{}
	session := newComposeSession(fixedAnalyzer{}, creator)
	reader := &scriptedReader{steps: []step{
		{line: "never mind"},
		{err: readline.ErrInterrupt},
		{line: "/show"},
		{err: readline.ErrInterrupt},
		{line: "unreachable"},
	}}
	out := &syncBuffer{}

	require.NoError(t, NewComposer(session, reader, out).Run(context.Background()))
	assert.Contains(t, out.String(), "Draft cleared.")
	assert.Contains(t, out.String(), "(empty draft)")
	assert.Equal(t, 4, reader.next, "second interrupt on an empty draft quits")
}

func TestComposer_Commands(t *testing.T) {
	session := newComposeSession(fixedAnalyzer{}, &memoryCreator{})
	reader := &scriptedReader{steps: []step{
		{line: "/bogus"},
		{line: "/help"},
		{line: "half a thought"},
		{line: "/quit"},
		{line: "unreachable"},
	}}
	out := &syncBuffer{}

	require.NoError(t, NewComposer(session, reader, out).Run(context.Background()))
	output := out.String()
	assert.Contains(t, output, "Unknown command /bogus")
	assert.Contains(t, output, "/discard")
	assert.Contains(t, output, "Unsaved draft discarded.")
	assert.Empty(t, session.State().Text)
}
