package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/Veraticus/mood-journal/internal/mood"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

const (
	previewWidth = 50
	barWidth     = 20
)

// emotionColors maps each emotion to a terminal color close to its palette color.
var emotionColors = map[model.Emotion]*color.Color{
	model.EmotionHappiness: color.New(color.FgGreen),
	model.EmotionSadness:   color.New(color.FgBlue),
	model.EmotionAnger:     color.New(color.FgRed),
	model.EmotionFear:      color.New(color.FgMagenta),
	model.EmotionSurprise:  color.New(color.FgYellow),
	model.EmotionDisgust:   color.New(color.FgHiBlack),
}

func emotionColor(e model.Emotion) *color.Color {
	if c, ok := emotionColors[e]; ok {
		return c
	}
	return color.New(color.Reset)
}

// PrintEntries writes entries as a table, one row per entry, with the
// dominant emotion colored.
func PrintEntries(w io.Writer, entries []model.JournalEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, SubtleStyle.Render("No entries."))
		return
	}

	tbl := uitable.New()
	tbl.MaxColWidth = previewWidth
	tbl.Separator = "  "
	tbl.AddRow("ID", "DATE", "MOOD", "ENTRY")
	for _, e := range entries {
		tbl.AddRow(e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), moodCell(e.Mood), preview(e.Text))
	}
	_, _ = fmt.Fprintln(w, tbl)
}

func moodCell(m model.Mood) string {
	if m.IsZero() {
		return color.New(color.Faint).Sprint("-")
	}
	top, score := mood.Dominant(m)
	return emotionColor(top).Sprintf("%s %d%%", top, mood.Percent(score))
}

// PrintEntry writes one entry with all six emotion scores.
func PrintEntry(w io.Writer, e model.JournalEntry) {
	_, _ = fmt.Fprintln(w, TitleStyle.Render(e.CreatedAt.Local().Format("Monday, Jan 2 2006 at 15:04")))
	_, _ = fmt.Fprintln(w, SubtleStyle.Render(e.ID))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, e.Text)
	_, _ = fmt.Fprintln(w)
	if e.Mood.IsZero() && e.MoodConfidence == nil {
		_, _ = fmt.Fprintln(w, SubtleStyle.Render("Not analyzed."))
		return
	}
	printAnalysis(w, model.MoodAnalysisResult{
		Mood:       e.Mood,
		Confidence: e.MoodConfidence,
		Summary:    e.MoodSummary,
		Keywords:   e.MoodKeywords,
	})
}

// PrintAnalysis writes an analysis result.
func PrintAnalysis(w io.Writer, r model.MoodAnalysisResult) {
	printAnalysis(w, r)
}

func printAnalysis(w io.Writer, r model.MoodAnalysisResult) {
	tbl := uitable.New()
	tbl.Separator = " "
	for _, e := range model.Emotions {
		score := r.Mood.Score(e)
		tbl.AddRow(string(e), bar(e, score), fmt.Sprintf("%3d%%", mood.Percent(score)))
	}
	_, _ = fmt.Fprintln(w, tbl)

	if r.Confidence != nil {
		_, _ = fmt.Fprintf(w, "confidence: %d%%\n", mood.Percent(*r.Confidence))
	}
	if r.Summary != nil && *r.Summary != "" {
		_, _ = fmt.Fprintf(w, "summary:    %s\n", *r.Summary)
	}
	if len(r.Keywords) > 0 {
		_, _ = fmt.Fprintf(w, "keywords:   %s\n", strings.Join(r.Keywords, ", "))
	}
}

func bar(e model.Emotion, score float64) string {
	filled := mood.Percent(score) * barWidth / 100
	return emotionColor(e).Sprint(strings.Repeat("█", filled)) +
		color.New(color.Faint).Sprint(strings.Repeat("░", barWidth-filled))
}

func preview(text string) string {
	line, _, more := strings.Cut(strings.TrimSpace(text), "\n")
	if more {
		line += " ..."
	}
	return line
}
