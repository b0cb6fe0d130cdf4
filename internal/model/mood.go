// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strings"
)

// Emotion names one of the six scored emotions.
type Emotion string

// Emotion constants. The set is closed.
const (
	EmotionHappiness Emotion = "happiness"
	EmotionSadness   Emotion = "sadness"
	EmotionAnger     Emotion = "anger"
	EmotionFear      Emotion = "fear"
	EmotionSurprise  Emotion = "surprise"
	EmotionDisgust   Emotion = "disgust"
)

// Emotions lists every emotion in display order.
var Emotions = []Emotion{
	EmotionHappiness,
	EmotionSadness,
	EmotionAnger,
	EmotionFear,
	EmotionSurprise,
	EmotionDisgust,
}

// ParseEmotion validates a user supplied emotion name.
func ParseEmotion(s string) (Emotion, error) {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	if !e.Valid() {
		return "", fmt.Errorf("unknown emotion %q (valid: %s)", s, emotionList())
	}
	return e, nil
}

// Valid reports whether e is one of the six emotions.
func (e Emotion) Valid() bool {
	for _, known := range Emotions {
		if e == known {
			return true
		}
	}
	return false
}

func emotionList() string {
	names := make([]string, len(Emotions))
	for i, e := range Emotions {
		names[i] = string(e)
	}
	return strings.Join(names, ", ")
}

// Mood holds one score per emotion. The zero value is the all-zero vector.
type Mood struct {
	Happiness float64 `json:"happiness"`
	Sadness   float64 `json:"sadness"`
	Anger     float64 `json:"anger"`
	Fear      float64 `json:"fear"`
	Surprise  float64 `json:"surprise"`
	Disgust   float64 `json:"disgust"`
}

// Score returns the score for e, or 0 for an unknown emotion.
func (m Mood) Score(e Emotion) float64 {
	switch e {
	case EmotionHappiness:
		return m.Happiness
	case EmotionSadness:
		return m.Sadness
	case EmotionAnger:
		return m.Anger
	case EmotionFear:
		return m.Fear
	case EmotionSurprise:
		return m.Surprise
	case EmotionDisgust:
		return m.Disgust
	}
	return 0
}

// Set assigns the score for e. Unknown emotions are ignored.
func (m *Mood) Set(e Emotion, score float64) {
	switch e {
	case EmotionHappiness:
		m.Happiness = score
	case EmotionSadness:
		m.Sadness = score
	case EmotionAnger:
		m.Anger = score
	case EmotionFear:
		m.Fear = score
	case EmotionSurprise:
		m.Surprise = score
	case EmotionDisgust:
		m.Disgust = score
	}
}

// IsZero reports whether every score is zero.
func (m Mood) IsZero() bool {
	return m == Mood{}
}

// MoodAnalysisResult is the normalized outcome of a mood analysis.
// It only lives in a composition session until merged into a JournalEntry.
type MoodAnalysisResult struct {
	Confidence *float64
	Summary    *string
	Keywords   []string
	Mood       Mood
}
