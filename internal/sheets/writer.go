package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/Veraticus/mood-journal/internal/mood"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrNoEntries is returned when there is nothing to export.
var ErrNoEntries = errors.New("no entries to export")

const sheetTitle = "Entries"

// entryColumns is the width of the entry table.
const entryColumns = 12

// Writer exports journal entries to Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a writer authenticated from config.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger = common.OrDefault(logger)

	ts, err := tokenSource(ctx, config, logger)
	if err != nil {
		return nil, err
	}
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return NewWriterWithService(srv, config, logger), nil
}

// NewWriterWithService wraps an existing Sheets service.
func NewWriterWithService(srv *sheets.Service, config Config, logger *slog.Logger) *Writer {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Writer{
		service: srv,
		logger:  common.OrDefault(logger),
		config:  config,
	}
}

// Write replaces the sheet contents with entries and returns the spreadsheet id.
func (w *Writer) Write(ctx context.Context, entries []model.JournalEntry) (string, error) {
	if len(entries) == 0 {
		return "", ErrNoEntries
	}
	w.logger.Info("starting sheets export", "entries", len(entries))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return "", fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values, tableStart := prepareEntryData(entries, w.location())

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, tableStart, len(values))
		}, retryOpts)
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))
	return spreadsheetID, nil
}

func (w *Writer) location() *time.Location {
	if w.config.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(w.config.TimeZone)
	if err != nil {
		w.logger.Warn("unknown time zone, using UTC", "time_zone", w.config.TimeZone)
		return time.UTC
	}
	return loc
}

func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: sheetTitle}},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)
	return created.SpreadsheetId, nil
}

func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareEntryData lays out a title, a mood summary and one row per entry,
// newest first. It also returns the zero-based row index of the table header.
func prepareEntryData(entries []model.JournalEntry, loc *time.Location) ([][]any, int) {
	sorted := append([]model.JournalEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	newest, oldest := sorted[0].CreatedAt, sorted[len(sorted)-1].CreatedAt

	var totals model.Mood
	dominant := make(map[model.Emotion]int)
	analyzed := 0
	for _, e := range sorted {
		if e.Mood.IsZero() {
			continue
		}
		analyzed++
		for _, em := range model.Emotions {
			totals.Set(em, totals.Score(em)+e.Mood.Score(em))
		}
		top, _ := mood.Dominant(e.Mood)
		dominant[top]++
	}

	values := make([][]any, 0, 10+len(model.Emotions)+len(sorted))
	values = append(values,
		[]any{
			"Mood Journal",
			fmt.Sprintf("%s - %s", oldest.In(loc).Format("Jan 2, 2006"), newest.In(loc).Format("Jan 2, 2006")),
		},
		[]any{},
		[]any{"Summary"},
		[]any{"Total Entries", len(sorted)},
		[]any{"Analyzed Entries", analyzed},
		[]any{},
		[]any{"Emotion", "Average %", "Dominant In"},
	)
	for _, em := range model.Emotions {
		avg := 0
		if analyzed > 0 {
			avg = mood.Percent(totals.Score(em) / float64(analyzed))
		}
		values = append(values, []any{string(em), avg, dominant[em]})
	}

	values = append(values, []any{}, []any{"Entries"})
	tableStart := len(values)

	header := []any{"Date", "Dominant"}
	for _, em := range model.Emotions {
		header = append(header, string(em))
	}
	header = append(header, "Confidence", "Summary", "Keywords", "Text")
	values = append(values, header)

	for _, e := range sorted {
		row := make([]any, 0, entryColumns)
		row = append(row, e.CreatedAt.In(loc).Format("2006-01-02 15:04"))
		if e.Mood.IsZero() {
			row = append(row, "")
		} else {
			top, _ := mood.Dominant(e.Mood)
			row = append(row, string(top))
		}
		for _, em := range model.Emotions {
			row = append(row, mood.Percent(e.Mood.Score(em)))
		}
		confidence, summary := "", ""
		if e.MoodConfidence != nil {
			confidence = fmt.Sprintf("%.2f", *e.MoodConfidence)
		}
		if e.MoodSummary != nil {
			summary = *e.MoodSummary
		}
		row = append(row, confidence, summary, strings.Join(e.MoodKeywords, ", "), e.Text)
		values = append(values, row)
	}

	return values, tableStart
}

func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]

		rangeStr := fmt.Sprintf("A%d", i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, &sheets.ValueRange{Values: batch}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}
	return nil
}

func boldRange(startRow, endRow, startCol, endCol int64, size int64) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          0,
				StartRowIndex:    startRow,
				EndRowIndex:      endRow,
				StartColumnIndex: startCol,
				EndColumnIndex:   endCol,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{Bold: true, FontSize: size},
				},
			},
			Fields: "userEnteredFormat.textFormat",
		},
	}
}

func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, tableStart, totalRows int) error {
	requests := []*sheets.Request{
		boldRange(0, 1, 0, 2, 16),
		boldRange(2, int64(tableStart), 0, 1, 10),
		boldRange(int64(tableStart), int64(tableStart)+1, 0, entryColumns, 10),
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    int64(tableStart) + 1,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: entryColumns - 1,
					EndColumnIndex:   entryColumns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{WrapStrategy: "WRAP"},
				},
				Fields: "userEnteredFormat.wrapStrategy",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    0,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   entryColumns - 1,
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: 0,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	return err
}
