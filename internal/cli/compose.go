package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/Veraticus/mood-journal/internal/journal"
	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/chzyer/readline"
)

// LineReader yields one line of input per call. *readline.Instance
// satisfies it.
type LineReader interface {
	Readline() (string, error)
}

// ComposeSession is the part of journal.Session the composer drives.
type ComposeSession interface {
	State() journal.SessionState
	AppendText(line string)
	Analyze(ctx context.Context) (model.MoodAnalysisResult, error)
	Save(ctx context.Context) (model.JournalEntry, error)
	Discard()
}

const composeHelp = `Type your entry. Lines are added to the draft.
  /analyze  score the draft in the background
  /show     print the draft and its analysis
  /save     save the draft (with the analysis, if one is held)
  /discard  throw the draft away
  /quit     leave (an unsaved draft is discarded)`

// ComposeCompleter completes slash commands.
var ComposeCompleter = readline.NewPrefixCompleter(
	readline.PcItem("/analyze"),
	readline.PcItem("/show"),
	readline.PcItem("/save"),
	readline.PcItem("/discard"),
	readline.PcItem("/help"),
	readline.PcItem("/quit"),
)

// Composer is a line-oriented editor for one journal entry at a time.
type Composer struct {
	session ComposeSession
	in      LineReader
	out     io.Writer
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewComposer creates a composer writing to out.
func NewComposer(session ComposeSession, in LineReader, out io.Writer) *Composer {
	return &Composer{session: session, in: in, out: out}
}

func (c *Composer) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// Run reads lines until /quit, end of input or ctx ends. Ctrl-C clears a
// non-empty draft and quits on an empty one.
func (c *Composer) Run(ctx context.Context) error {
	defer c.wg.Wait()
	c.printf("%s\n", SubtleStyle.Render("Type /help for commands."))

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := c.in.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if c.session.State().Text == "" {
				return nil
			}
			c.session.Discard()
			c.printf("%s\n", FormatInfo("Draft cleared."))
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		if !strings.HasPrefix(line, "/") {
			c.session.AppendText(line)
			continue
		}
		if quit := c.command(ctx, strings.TrimSpace(line)); quit {
			return nil
		}
	}
}

func (c *Composer) command(ctx context.Context, cmd string) bool {
	switch cmd {
	case "/analyze":
		c.analyze(ctx)
	case "/show":
		c.show()
	case "/save":
		c.save(ctx)
	case "/discard":
		c.session.Discard()
		c.printf("%s\n", FormatInfo("Draft discarded."))
	case "/help":
		c.printf("%s\n", composeHelp)
	case "/quit", "/exit":
		if c.session.State().Text != "" {
			c.session.Discard()
			c.printf("%s\n", FormatWarning("Unsaved draft discarded."))
		}
		return true
	default:
		c.printf("%s\n", FormatError(fmt.Sprintf("Unknown command %s. Type /help.", cmd)))
	}
	return false
}

func (c *Composer) analyze(ctx context.Context) {
	if strings.TrimSpace(c.session.State().Text) == "" {
		c.printf("%s\n", FormatWarning(journal.Message(common.ErrEmptyText)))
		return
	}
	c.printf("%s\n", SubtleStyle.Render("Analyzing..."))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result, err := c.session.Analyze(ctx)
		switch {
		case journal.IsSuperseded(err):
		case err != nil:
			c.printf("%s\n", FormatError(journal.Message(err)))
		default:
			c.mu.Lock()
			PrintAnalysis(c.out, result)
			c.mu.Unlock()
		}
	}()
}

func (c *Composer) show() {
	state := c.session.State()
	if state.Text == "" {
		c.printf("%s\n", SubtleStyle.Render("(empty draft)"))
		return
	}
	c.printf("%s\n", RenderBox("Draft", state.Text))
	switch {
	case state.Analyzing:
		c.printf("%s\n", SubtleStyle.Render("Analysis in progress."))
	case state.Result != nil:
		c.mu.Lock()
		PrintAnalysis(c.out, *state.Result)
		c.mu.Unlock()
	case state.Err != nil:
		c.printf("%s\n", FormatError(journal.Message(state.Err)))
	default:
		c.printf("%s\n", SubtleStyle.Render("Not analyzed."))
	}
}

func (c *Composer) save(ctx context.Context) {
	entry, err := c.session.Save(ctx)
	if err != nil {
		c.printf("%s\n", FormatError(journal.Message(err)))
		return
	}
	c.printf("%s\n", FormatSuccess("Saved entry "+entry.ID))
}
