package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/mood-journal/internal/journal"
	tea "github.com/charmbracelet/bubbletea"
)

// ObservableCollection is a Collection that reports state changes.
type ObservableCollection interface {
	Collection
	Subscribe(fn func(journal.State))
}

// Options configures Run.
type Options struct {
	Input  io.Reader
	Output io.Writer
	Theme  *Theme
}

// Run starts the browser and blocks until the user quits or ctx ends.
func Run(ctx context.Context, collection ObservableCollection, opts Options) error {
	theme := DefaultTheme
	if opts.Theme != nil {
		theme = *opts.Theme
	}

	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}

	p := tea.NewProgram(NewModel(ctx, collection, theme), programOpts...)

	// Send from a goroutine: callbacks can fire while Update is running and
	// Program.Send blocks until the event loop receives the message.
	collection.Subscribe(func(journal.State) {
		go p.Send(collectionChangedMsg{})
	})

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("browser error: %w", err)
	}
	return nil
}
