package model

import "time"

// JournalEntry is a persisted journal entry owned by a single user.
type JournalEntry struct {
	CreatedAt      time.Time `json:"createdAt"`
	MoodConfidence *float64  `json:"moodConfidence,omitempty"`
	MoodSummary    *string   `json:"moodSummary,omitempty"`
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Text           string    `json:"text"`
	MoodKeywords   []string  `json:"moodKeywords"`
	Mood           Mood      `json:"mood"`
}

// Draft is the input for creating an entry. Mood fields are optional so an
// entry can be saved without analysis.
type Draft struct {
	Mood           *Mood
	MoodConfidence *float64
	MoodSummary    *string
	Text           string
	MoodKeywords   []string
}

// DraftFromResult builds a draft from text and an optional analysis result.
func DraftFromResult(text string, result *MoodAnalysisResult) Draft {
	d := Draft{Text: text}
	if result == nil {
		return d
	}
	mood := result.Mood
	d.Mood = &mood
	d.MoodConfidence = result.Confidence
	d.MoodSummary = result.Summary
	d.MoodKeywords = append([]string(nil), result.Keywords...)
	return d
}

// EntryFilter narrows the visible entries. An empty Mood means no filter.
type EntryFilter struct {
	Mood Emotion
}

// Active reports whether the filter narrows anything.
func (f EntryFilter) Active() bool {
	return f.Mood != ""
}
