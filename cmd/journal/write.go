package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/mood-journal/internal/cli"
	"github.com/Veraticus/mood-journal/internal/journal"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// entryText joins args, or reads stdin when there are none and stdin is not
// a terminal.
func entryText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func writeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write [text...]",
		Short: "Write a journal entry",
		Long: `Save a journal entry from the arguments or from stdin.

With --analyze the entry is scored first. If analysis fails the entry is
still saved, without mood data.`,
		Example: `  journal write "Long walk by the river, felt calm"
  echo "Rough meeting" | journal write --analyze`,
		RunE: runWrite,
	}
	cmd.Flags().Bool("analyze", false, "analyze the entry's mood before saving")
	return cmd
}

func runWrite(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	text, err := entryText(cmd, args)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if _, err := a.requireUser(); err != nil {
		return err
	}

	var analyzer journal.Analyzer
	if analyze, _ := cmd.Flags().GetBool("analyze"); analyze {
		llmAnalyzer, err := a.analyzer()
		if err != nil {
			return err
		}
		analyzer = llmAnalyzer
	}

	session := a.session(analyzer)
	session.SetText(text)
	if analyzer != nil && strings.TrimSpace(text) != "" {
		if result, err := session.Analyze(ctx); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning(journal.Message(err)+" Saving without mood."))
		} else {
			cli.PrintAnalysis(out, result)
		}
	}

	entry, err := session.Save(ctx)
	if err != nil {
		return friendly(err)
	}
	fmt.Fprintln(out, cli.FormatSuccess("Saved entry "+entry.ID))
	return nil
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Analyze text without saving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := entryText(cmd, args)
			if err != nil {
				return err
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if _, err := a.requireUser(); err != nil {
				return err
			}
			analyzer, err := a.analyzer()
			if err != nil {
				return err
			}

			session := a.session(analyzer)
			session.SetText(text)
			result, err := session.Analyze(ctx)
			if err != nil {
				return friendly(err)
			}
			cli.PrintAnalysis(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func composeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compose",
		Short: "Compose entries interactively",
		Long: `Open an editor session for writing entries line by line.

Analysis runs in the background while you keep writing. Editing the draft
or starting another analysis drops the previous one. /save never waits for
an analysis in progress; it saves with the last completed result, if any.`,
		RunE: runCompose,
	}
}

func runCompose(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if _, err := a.requireUser(); err != nil {
		return err
	}
	if err := a.auth.Watch(ctx); err != nil {
		a.logger.Warn("not following session changes", "error", err)
	}

	var analyzer journal.Analyzer
	if llmAnalyzer, err := a.analyzer(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning(err.Error()))
	} else {
		analyzer = llmAnalyzer
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cli.FormatPrompt(">"),
		AutoComplete:    cli.ComposeCompleter,
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
	if err != nil {
		return fmt.Errorf("failed to start line editor: %w", err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Fprintln(rl.Stdout(), cli.FormatTitle("New entry"))
	return cli.NewComposer(a.session(analyzer), rl, rl.Stdout()).Run(ctx)
}
