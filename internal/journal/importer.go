package journal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/mood-journal/internal/auth"
	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/sourcegraph/conc/pool"
)

// ImportResult is the outcome for one imported file.
type ImportResult struct {
	Err        error
	AnalyzeErr error
	Path       string
	Entry      model.JournalEntry
	Skipped    bool
}

// ImportOptions configures an Importer.
type ImportOptions struct {
	// Analyzer scores each file before it is saved. Nil saves without analysis.
	Analyzer    Analyzer
	Logger      *slog.Logger
	OnResult    func(ImportResult)
	ReadFile    func(path string) ([]byte, error)
	Concurrency int
}

// Importer turns text files into entries, one entry per non-blank file.
type Importer struct {
	creator  EntryCreator
	identity auth.Identity
	opts     ImportOptions
	logger   *slog.Logger
}

// NewImporter creates an importer that saves through creator.
func NewImporter(creator EntryCreator, identity auth.Identity, opts ImportOptions) *Importer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	return &Importer{
		creator:  creator,
		identity: identity,
		opts:     opts,
		logger:   common.OrDefault(opts.Logger),
	}
}

// Import processes paths concurrently and returns results in input order.
// A failed file does not stop the others. An analysis failure still saves
// the entry, without mood data, and is reported in AnalyzeErr.
func (im *Importer) Import(ctx context.Context, paths []string) ([]ImportResult, error) {
	userID := im.identity.CurrentUserID()
	if userID == "" {
		return nil, repoError(KindUnauthenticated, common.ErrUnauthenticated)
	}

	type indexed struct {
		result ImportResult
		index  int
	}

	p := pool.NewWithResults[indexed]().WithMaxGoroutines(im.opts.Concurrency)
	for i, path := range paths {
		p.Go(func() indexed {
			r := im.importFile(ctx, userID, path)
			if im.opts.OnResult != nil {
				im.opts.OnResult(r)
			}
			return indexed{index: i, result: r}
		})
	}

	results := make([]ImportResult, len(paths))
	for _, r := range p.Wait() {
		results[r.index] = r.result
	}
	return results, ctx.Err()
}

func (im *Importer) importFile(ctx context.Context, userID, path string) ImportResult {
	result := ImportResult{Path: path}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	data, err := im.opts.ReadFile(path)
	if err != nil {
		result.Err = fmt.Errorf("failed to read %s: %w", path, err)
		return result
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		result.Skipped = true
		return result
	}

	var analysis *model.MoodAnalysisResult
	if im.opts.Analyzer != nil {
		r, analyzeErr := im.opts.Analyzer.Analyze(ctx, text, userID)
		if analyzeErr != nil {
			result.AnalyzeErr = analyzeErr
			im.logger.Warn("analysis failed, saving without mood", "path", path, "error", analyzeErr)
		} else {
			analysis = &r
		}
	}

	entry, err := im.creator.Create(ctx, model.DraftFromResult(text, analysis))
	if err != nil {
		result.Err = err
		return result
	}
	result.Entry = entry
	im.logger.Debug("imported entry", "path", path, "id", entry.ID)
	return result
}
