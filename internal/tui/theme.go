package tui

import (
	"github.com/Veraticus/mood-journal/internal/cli"
	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/Veraticus/mood-journal/internal/mood"
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the browser's styles.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Selected      lipgloss.Style
	RoundedBox    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusPending lipgloss.Style
	BarEmpty      lipgloss.Style
	Primary       lipgloss.Color
	Border        lipgloss.Color
	Muted         lipgloss.Color
}

// NewTheme builds a theme around a primary color, using the command line
// palette for everything else.
func NewTheme(primary lipgloss.Color) Theme {
	text := lipgloss.Color("#FAFAFA")
	plain := lipgloss.NewStyle().Foreground(text)
	status := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}

	return Theme{
		Primary: primary,
		Border:  cli.BorderColor,
		Muted:   cli.SubtleColor,

		Title:    plain.Bold(true),
		Subtitle: lipgloss.NewStyle().Foreground(cli.SubtleColor),
		Normal:   plain,
		Bold:     plain.Bold(true),
		Selected: plain.Background(primary).Bold(true),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cli.BorderColor).
			Padding(0, 1),

		StatusSuccess: status(cli.SuccessColor),
		StatusWarning: status(cli.WarningColor),
		StatusError:   status(cli.ErrorColor),
		StatusPending: lipgloss.NewStyle().Foreground(cli.SubtleColor).Italic(true),
		BarEmpty:      lipgloss.NewStyle().Foreground(cli.BorderColor),
	}
}

// DefaultTheme uses the journal's violet.
var DefaultTheme = NewTheme(cli.PrimaryColor)

// EmotionStyle colors text with the emotion's palette color.
func (t Theme) EmotionStyle(e model.Emotion) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(mood.Color(e)))
}
