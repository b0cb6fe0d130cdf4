package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Veraticus/mood-journal/internal/journal"
	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/Veraticus/mood-journal/internal/mood"
	"github.com/Veraticus/mood-journal/internal/testutil"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCollection is an in-memory Collection.
type fakeCollection struct {
	fetchErr  error
	deleteErr error
	filter    model.EntryFilter
	entries   []model.JournalEntry
	deleted   []string
	fetches   int
	mu        sync.Mutex
}

func (c *fakeCollection) State() journal.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return journal.State{
		Entries: append([]model.JournalEntry(nil), c.entries...),
		Filter:  c.filter,
	}
}

func (c *fakeCollection) Fetch(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches++
	return c.fetchErr
}

func (c *fakeCollection) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	c.deleted = append(c.deleted, id)
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	c.entries = kept
	return nil
}

func (c *fakeCollection) UpdateFilter(f model.EntryFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
}

func (c *fakeCollection) ClearFilter() {
	c.UpdateFilter(model.EntryFilter{})
}

func newTestModel(t *testing.T) (Model, *fakeCollection) {
	t.Helper()
	entries := testutil.NewEntryBuilder("alice").
		WithEntry("exam tomorrow", testutil.Anxious).
		WithEntry("bad news", testutil.Sad).
		WithEntry("morning run", testutil.Happy).
		Entries()
	// Newest first, as the manager keeps them.
	entries[0], entries[2] = entries[2], entries[0]
	c := &fakeCollection{entries: entries}
	m := NewModel(context.Background(), c, DefaultTheme)
	return m, c
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and runs any resulting command synchronously.
func press(t *testing.T, m Model, s string) Model {
	t.Helper()
	next, cmd := m.Update(keyPress(s))
	m = next.(Model)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			if _, quit := msg.(tea.QuitMsg); !quit {
				next, _ = m.Update(msg)
				m = next.(Model)
			}
		}
	}
	return m
}

func TestModel_RendersEntries(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	assert.Contains(t, view, "Mood Journal")
	assert.Contains(t, view, "3 of 3 entries")
	assert.Contains(t, view, "morning run")
	assert.Contains(t, view, "90%")
}

func TestModel_FilterCycle(t *testing.T) {
	m, c := newTestModel(t)

	m = press(t, m, "f")
	assert.Equal(t, model.EmotionHappiness, c.filter.Mood)
	require.Len(t, m.visible, 1)
	assert.Equal(t, "morning run", m.visible[0].Text)
	assert.Contains(t, m.View(), "filter: happiness")

	m = press(t, m, "f")
	assert.Equal(t, model.EmotionSadness, c.filter.Mood)
	require.Len(t, m.visible, 1)
	assert.Equal(t, "bad news", m.visible[0].Text)

	m = press(t, m, "c")
	assert.False(t, c.filter.Active())
	assert.Len(t, m.visible, 3)
}

func TestModel_FilterWithNoMatches(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "f")
	m = press(t, m, "f")
	m = press(t, m, "f") // anger
	assert.Empty(t, m.visible)
	assert.Contains(t, m.View(), "No entries with more than 50% anger.")
}

func TestNextEmotion(t *testing.T) {
	seen := []model.Emotion{}
	e := model.Emotion("")
	for range len(model.Emotions) + 1 {
		e = nextEmotion(e)
		seen = append(seen, e)
	}
	assert.Equal(t, append(append([]model.Emotion(nil), model.Emotions...), ""), seen)
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	m, c := newTestModel(t)

	m = press(t, m, "d")
	assert.Contains(t, m.View(), "Delete this entry? (y/n)")
	m = press(t, m, "n")
	assert.Empty(t, c.deleted)

	m = press(t, m, "d")
	m = press(t, m, "y")
	assert.Equal(t, []string{"entry-3"}, c.deleted)
	assert.Len(t, m.visible, 2)
	assert.Contains(t, m.View(), "Entry deleted.")
}

func TestModel_DeleteFailureShowsMessage(t *testing.T) {
	m, c := newTestModel(t)
	c.deleteErr = errors.New("boom")

	m = press(t, m, "d")
	m = press(t, m, "y")
	assert.Len(t, m.visible, 3)
	assert.True(t, m.statusErr)
	assert.NotEmpty(t, m.status)
}

func TestModel_RefreshAndQuit(t *testing.T) {
	m, c := newTestModel(t)
	m = press(t, m, "r")
	assert.Equal(t, 1, c.fetches)

	_, cmd := m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_CollectionChanged(t *testing.T) {
	m, c := newTestModel(t)
	c.mu.Lock()
	c.entries = c.entries[:1]
	c.mu.Unlock()

	next, _ := m.Update(collectionChangedMsg{})
	m = next.(Model)
	assert.Len(t, m.visible, 1)
}

func TestRenderBar(t *testing.T) {
	m, _ := newTestModel(t)
	bar := m.renderBar(model.EmotionFear, 0.5)
	assert.Contains(t, bar, "fear")
	assert.Contains(t, bar, "50%")
	assert.Equal(t, mood.Percent(0.5), 50)
}
