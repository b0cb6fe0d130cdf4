// Package storage provides the row stores that hold journal entries and users.
package storage

import (
	"encoding/json"
	"time"
)

// EntryRow is a journal entry as stored. Mood is kept as the raw stored JSON
// so readers can normalize whatever shape an older writer left behind.
type EntryRow struct {
	CreatedAt      time.Time       `json:"created_at"`
	MoodConfidence *float64        `json:"mood_confidence"`
	MoodSummary    *string         `json:"mood_summary"`
	ID             string          `json:"id,omitempty"`
	UserID         string          `json:"user_id"`
	Text           string          `json:"text"`
	Mood           json.RawMessage `json:"mood"`
	MoodKeywords   []string        `json:"mood_keywords"`
}

// RowFilter selects entry rows. Empty fields do not constrain the query.
type RowFilter struct {
	ID     string
	UserID string
}

// IsEmpty reports whether the filter would match every row.
func (f RowFilter) IsEmpty() bool {
	return f.ID == "" && f.UserID == ""
}

// User is a locally registered account.
type User struct {
	CreatedAt    time.Time
	ID           string
	Email        string
	PasswordHash string
}
