package mood

import (
	"math"

	"github.com/Veraticus/mood-journal/internal/model"
)

// FilterThreshold is the score an entry must exceed to match an emotion filter.
const FilterThreshold = 0.5

// Matches reports whether m passes a filter on e.
func Matches(m model.Mood, e model.Emotion) bool {
	return m.Score(e) > FilterThreshold
}

// Dominant returns the highest scoring emotion. Ties go to the emotion listed
// first in model.Emotions, so an all-zero mood reports happiness at 0.
func Dominant(m model.Mood) (model.Emotion, float64) {
	best := model.Emotions[0]
	bestScore := m.Score(best)
	for _, e := range model.Emotions[1:] {
		if s := m.Score(e); s > bestScore {
			best, bestScore = e, s
		}
	}
	return best, bestScore
}

// Percent converts a [0,1] score into a whole percentage.
// This is the single display scaling used everywhere.
func Percent(score float64) int {
	return int(math.Round(clamp(score) * 100))
}

var palette = map[model.Emotion]string{
	model.EmotionHappiness: "#10B981",
	model.EmotionSadness:   "#60A5FA",
	model.EmotionAnger:     "#EF4444",
	model.EmotionFear:      "#8B5CF6",
	model.EmotionSurprise:  "#F59E0B",
	model.EmotionDisgust:   "#6B7280",
}

// Color returns the hex display color for e.
func Color(e model.Emotion) string {
	if c, ok := palette[e]; ok {
		return c
	}
	return "#6B7280"
}
