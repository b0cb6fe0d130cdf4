package testutil

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/Veraticus/mood-journal/internal/storage"
)

// Common moods used across tests.
var (
	Happy   = model.Mood{Happiness: 0.9, Surprise: 0.2}
	Sad     = model.Mood{Sadness: 0.8, Fear: 0.1}
	Anxious = model.Mood{Fear: 0.7, Sadness: 0.3}
	Neutral = model.Mood{}
)

// BaseTime is the creation time of the first entry a builder produces.
var BaseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// EntryBuilder produces entry rows for one user, each an hour after the last.
type EntryBuilder struct {
	next   time.Time
	userID string
	rows   []storage.EntryRow
}

// NewEntryBuilder starts a builder for userID.
func NewEntryBuilder(userID string) *EntryBuilder {
	return &EntryBuilder{userID: userID, next: BaseTime}
}

// WithEntry adds an entry with the given text and mood.
func (b *EntryBuilder) WithEntry(text string, m model.Mood) *EntryBuilder {
	raw, err := json.Marshal(m)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal mood: %v", err))
	}
	b.rows = append(b.rows, storage.EntryRow{
		UserID:       b.userID,
		Text:         text,
		Mood:         raw,
		MoodKeywords: []string{},
		CreatedAt:    b.next,
	})
	b.next = b.next.Add(time.Hour)
	return b
}

// WithRawMood adds an entry whose stored mood is the given JSON, as another
// client might have written it.
func (b *EntryBuilder) WithRawMood(text, moodJSON string) *EntryBuilder {
	b.rows = append(b.rows, storage.EntryRow{
		UserID:    b.userID,
		Text:      text,
		Mood:      json.RawMessage(moodJSON),
		CreatedAt: b.next,
	})
	b.next = b.next.Add(time.Hour)
	return b
}

// Build returns the rows in the order they were added.
func (b *EntryBuilder) Build() []storage.EntryRow {
	return append([]storage.EntryRow(nil), b.rows...)
}

// Entries converts the rows to entries with synthetic ids, for tests that
// never touch a store.
func (b *EntryBuilder) Entries() []model.JournalEntry {
	entries := make([]model.JournalEntry, 0, len(b.rows))
	for i, row := range b.rows {
		var m model.Mood
		_ = json.Unmarshal(row.Mood, &m)
		entries = append(entries, model.JournalEntry{
			ID:           fmt.Sprintf("entry-%d", i+1),
			UserID:       row.UserID,
			Text:         row.Text,
			Mood:         m,
			MoodKeywords: []string{},
			CreatedAt:    row.CreatedAt,
		})
	}
	return entries
}
