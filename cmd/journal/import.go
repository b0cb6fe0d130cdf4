package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Veraticus/mood-journal/internal/cli"
	"github.com/Veraticus/mood-journal/internal/journal"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|dir>...",
		Short: "Import text files as journal entries",
		Long: `Import each text file as one entry. Directories contribute their .txt
and .md files. Blank files are skipped.

With --analyze every file is scored before it is saved. Files whose
analysis fails are still imported, without mood data.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}
	cmd.Flags().Bool("analyze", false, "analyze each entry's mood")
	cmd.Flags().Int("concurrency", 4, "files processed in parallel")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No .txt or .md files found."))
		return nil
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Entries saved so far are kept.")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if _, err := a.requireUser(); err != nil {
		return err
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	opts := journal.ImportOptions{Logger: a.logger, Concurrency: concurrency}
	if analyze, _ := cmd.Flags().GetBool("analyze"); analyze {
		analyzer, analyzerErr := a.analyzer()
		if analyzerErr != nil {
			return analyzerErr
		}
		opts.Analyzer = analyzer
	}

	errOut := cmd.ErrOrStderr()
	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(errOut),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing entries...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(errOut)
		}),
	)
	opts.OnResult = func(journal.ImportResult) {
		if addErr := bar.Add(1); addErr != nil {
			slog.Warn("Failed to update progress bar", "error", addErr)
		}
	}

	results, importErr := journal.NewImporter(a.manager, a.auth, opts).Import(ctx, paths)
	if importErr != nil && !interrupts.WasInterrupted() {
		return friendly(importErr)
	}

	return reportImport(cmd, results)
}

func reportImport(cmd *cobra.Command, results []journal.ImportResult) error {
	out := cmd.OutOrStdout()
	var imported, skipped, unscored, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintln(out, cli.FormatError(fmt.Sprintf("%s: %s", r.Path, journal.Message(r.Err))))
		case r.Skipped:
			skipped++
		default:
			imported++
			if r.AnalyzeErr != nil {
				unscored++
			}
		}
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d of %d files.", imported, len(results))))
	if skipped > 0 {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d blank files skipped.", skipped)))
	}
	if unscored > 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d entries saved without mood because analysis failed.", unscored)))
	}
	if failed > 0 {
		return fmt.Errorf("%d files failed to import", failed)
	}
	return nil
}

// expandPaths replaces each directory with its .txt and .md files, sorted.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		dirEntries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		var found []string
		for _, de := range dirEntries {
			if de.IsDir() {
				continue
			}
			switch filepath.Ext(de.Name()) {
			case ".txt", ".md":
				found = append(found, filepath.Join(arg, de.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}
