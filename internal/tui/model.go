// Package tui is an interactive terminal browser for journal entries.
package tui

import (
	"context"

	"github.com/Veraticus/mood-journal/internal/journal"
	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/Veraticus/mood-journal/internal/mood"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Collection is the part of journal.Manager the browser drives.
type Collection interface {
	State() journal.State
	Fetch(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	UpdateFilter(f model.EntryFilter)
	ClearFilter()
}

// Model holds the browser state.
type Model struct {
	ctx        context.Context
	collection Collection
	theme      Theme
	keymap     KeyMap
	state      journal.State
	status     string
	statusErr  bool
	confirmID  string
	visible    []model.JournalEntry
	help       help.Model
	spinner    spinner.Model
	table      table.Model
	width      int
	height     int
	quitting   bool
}

// NewModel creates a browser over collection.
func NewModel(ctx context.Context, collection Collection, theme Theme) Model {
	columns := []table.Column{
		{Title: "Date", Width: 16},
		{Title: "Mood", Width: 10},
		{Title: "Score", Width: 5},
		{Title: "Entry", Width: 40},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(false)
	s.Selected = theme.Selected
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Primary)

	m := Model{
		ctx:        ctx,
		collection: collection,
		theme:      theme,
		keymap:     DefaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
		table:      t,
	}
	m.syncState()
	return m
}

// Init starts the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case collectionChangedMsg:
		m.syncState()
		return m, nil

	case actionDoneMsg:
		m.syncState()
		if msg.err != nil {
			m.status = journal.Message(msg.err)
			m.statusErr = true
		} else if msg.action == actionDelete {
			m.status = "Entry deleted."
			m.statusErr = false
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmID != "" {
		switch {
		case key.Matches(msg, m.keymap.Confirm):
			id := m.confirmID
			m.confirmID = ""
			m.status = ""
			return m, m.delete(id)
		case key.Matches(msg, m.keymap.Cancel), key.Matches(msg, m.keymap.Quit):
			m.confirmID = ""
			m.status = ""
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keymap.Refresh):
		m.status = ""
		return m, m.fetch()
	case key.Matches(msg, m.keymap.Filter):
		m.collection.UpdateFilter(model.EntryFilter{Mood: nextEmotion(m.state.Filter.Mood)})
		m.syncState()
		m.table.SetCursor(0)
		return m, nil
	case key.Matches(msg, m.keymap.ClearFilter):
		m.collection.ClearFilter()
		m.syncState()
		return m, nil
	case key.Matches(msg, m.keymap.Delete):
		if entry, ok := m.selected(); ok {
			m.confirmID = entry.ID
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// nextEmotion cycles no filter, then each emotion in display order.
func nextEmotion(current model.Emotion) model.Emotion {
	if current == "" {
		return model.Emotions[0]
	}
	for i, e := range model.Emotions {
		if e == current && i+1 < len(model.Emotions) {
			return model.Emotions[i+1]
		}
	}
	return ""
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: actionRefresh, err: m.collection.Fetch(m.ctx)}
	}
}

func (m Model) delete(id string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: actionDelete, err: m.collection.Delete(m.ctx, id)}
	}
}

func (m Model) selected() (model.JournalEntry, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return model.JournalEntry{}, false
	}
	return m.visible[i], true
}

// syncState copies the collection snapshot into the table.
func (m *Model) syncState() {
	m.state = m.collection.State()
	m.visible = m.state.Filtered()

	rows := make([]table.Row, 0, len(m.visible))
	for _, e := range m.visible {
		moodName, score := "", ""
		if !e.Mood.IsZero() {
			top, v := mood.Dominant(e.Mood)
			moodName = string(top)
			score = formatPercent(v)
		}
		rows = append(rows, table.Row{
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			moodName,
			score,
			firstLine(e.Text),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *Model) handleResize() {
	tableHeight := m.height - 16
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetHeight(tableHeight)

	entryWidth := m.width - 16 - 10 - 5 - 10
	if entryWidth < 20 {
		entryWidth = 20
	}
	cols := m.table.Columns()
	cols[len(cols)-1].Width = entryWidth
	m.table.SetColumns(cols)
	m.help.Width = m.width
}
