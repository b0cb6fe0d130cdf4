package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/Veraticus/mood-journal/internal/mood"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 20

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader()}
	if m.state.Error != "" {
		sections = append(sections, m.theme.StatusError.Render(m.state.Error))
	}

	if len(m.visible) == 0 {
		sections = append(sections, m.renderEmpty())
	} else {
		sections = append(sections, m.table.View())
		if entry, ok := m.selected(); ok {
			sections = append(sections, m.renderDetail(entry))
		}
	}

	if line := m.renderStatus(); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections, m.help.View(m.keymap))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render("Mood Journal")
	count := m.theme.Subtitle.Render(fmt.Sprintf("%d of %d entries", len(m.visible), len(m.state.Entries)))
	parts := []string{title, count}

	if m.state.Filter.Active() {
		e := m.state.Filter.Mood
		parts = append(parts, m.theme.EmotionStyle(e).Bold(true).Render("filter: "+string(e)))
	}
	if m.state.IsLoading {
		parts = append(parts, m.spinner.View()+m.theme.StatusPending.Render(" loading"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderEmpty() string {
	msg := "No entries yet. Write one with `journal write`."
	if m.state.Filter.Active() {
		msg = fmt.Sprintf("No entries with more than %d%% %s.", mood.Percent(mood.FilterThreshold), m.state.Filter.Mood)
	}
	if m.state.IsLoading {
		msg = "Loading entries..."
	}
	return m.theme.StatusPending.Render(msg)
}

func (m Model) renderDetail(e model.JournalEntry) string {
	var b strings.Builder
	b.WriteString(m.theme.Bold.Render(e.CreatedAt.Local().Format("Monday, Jan 2 2006 at 15:04")))
	b.WriteString("\n")

	width := m.width - 6
	if width < 30 {
		width = 60
	}
	b.WriteString(m.theme.Normal.Width(width).Render(e.Text))
	b.WriteString("\n\n")

	if e.Mood.IsZero() {
		b.WriteString(m.theme.StatusPending.Render("Not analyzed"))
	} else {
		for _, em := range model.Emotions {
			b.WriteString(m.renderBar(em, e.Mood.Score(em)))
			b.WriteString("\n")
		}
	}

	if e.MoodSummary != nil && *e.MoodSummary != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.Subtitle.Render(*e.MoodSummary))
	}
	if len(e.MoodKeywords) > 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.Subtitle.Render("keywords: " + strings.Join(e.MoodKeywords, ", ")))
	}

	return m.theme.RoundedBox.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderBar(e model.Emotion, score float64) string {
	filled := int(float64(barWidth)*score + 0.5)
	filled = min(max(filled, 0), barWidth)
	style := m.theme.EmotionStyle(e)
	return fmt.Sprintf("%-10s %s%s %s",
		e,
		style.Render(strings.Repeat("█", filled)),
		m.theme.BarEmpty.Render(strings.Repeat("░", barWidth-filled)),
		formatPercent(score))
}

func (m Model) renderStatus() string {
	if m.confirmID != "" {
		return m.theme.StatusWarning.Render("Delete this entry? (y/n)")
	}
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return m.theme.StatusError.Render(m.status)
	}
	return m.theme.StatusSuccess.Render(m.status)
}

func formatPercent(score float64) string {
	return fmt.Sprintf("%d%%", mood.Percent(score))
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return line
}
