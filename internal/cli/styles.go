// Package cli provides styled terminal output and interactive prompts for
// the journal command line.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette shared by the command line and the browser.
var (
	PrimaryColor = lipgloss.Color("#7C3AED")
	SuccessColor = lipgloss.Color("#10B981")
	WarningColor = lipgloss.Color("#F59E0B")
	ErrorColor   = lipgloss.Color("#EF4444")
	InfoColor    = lipgloss.Color("#60A5FA")
	SubtleColor  = lipgloss.Color("#6B7280")
	BorderColor  = lipgloss.Color("#404040")
)

var (
	// TitleStyle renders entry dates and section titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor)
	// SubtleStyle renders ids, placeholders and other secondary text.
	SubtleStyle = lipgloss.NewStyle().Foreground(SubtleColor)
	// BoxStyle frames a draft in the compose view.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)
	// PromptStyle renders questions and the compose prompt.
	PromptStyle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor)
)

// JournalIcon prefixes titles.
const JournalIcon = "📓"

type notice struct {
	style lipgloss.Style
	icon  string
}

var (
	successNotice = notice{icon: "✓", style: lipgloss.NewStyle().Foreground(SuccessColor)}
	errorNotice   = notice{icon: "✗", style: lipgloss.NewStyle().Foreground(ErrorColor)}
	warningNotice = notice{icon: "!", style: lipgloss.NewStyle().Foreground(WarningColor)}
	infoNotice    = notice{icon: "i", style: lipgloss.NewStyle().Foreground(InfoColor)}
)

func (n notice) render(message string) string {
	return n.style.Render(n.icon + " " + message)
}

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string { return successNotice.render(message) }

// FormatError formats an error message with icon.
func FormatError(message string) string { return errorNotice.render(message) }

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string { return warningNotice.render(message) }

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string { return infoNotice.render(message) }

// FormatTitle formats a title with the journal icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(JournalIcon + " " + title)
}

// FormatPrompt formats a prompt followed by a space.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " ")
}

// RenderBox renders content in a rounded box under a title.
func RenderBox(title, content string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, TitleStyle.Render(title), content))
}
