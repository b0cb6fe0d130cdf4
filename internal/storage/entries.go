package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InsertEntry writes a new entry row. The store assigns the id and, when
// unset, the creation time.
func (s *SQLiteStorage) InsertEntry(ctx context.Context, row EntryRow) (EntryRow, error) {
	if err := validateContext(ctx); err != nil {
		return EntryRow{}, err
	}
	if err := validateEntryRow(row); err != nil {
		return EntryRow{}, err
	}

	row.ID = uuid.NewString()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if len(row.Mood) == 0 {
		row.Mood = json.RawMessage("{}")
	}
	if row.MoodKeywords == nil {
		row.MoodKeywords = []string{}
	}

	keywords, err := json.Marshal(row.MoodKeywords)
	if err != nil {
		return EntryRow{}, fmt.Errorf("failed to encode keywords: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journal_entries
			(id, user_id, text, mood, mood_confidence, mood_summary, mood_keywords, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, row.ID, row.UserID, row.Text, string(row.Mood), row.MoodConfidence, row.MoodSummary, string(keywords), row.CreatedAt)
	if err != nil {
		return EntryRow{}, fmt.Errorf("failed to insert entry: %w", err)
	}

	return row, nil
}

// SelectEntries returns the rows matching f, newest first.
func (s *SQLiteStorage) SelectEntries(ctx context.Context, f RowFilter) ([]EntryRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.selectEntriesTx(ctx, s.db, f)
}

func (s *SQLiteStorage) selectEntriesTx(ctx context.Context, q queryable, f RowFilter) ([]EntryRow, error) {
	where, args := entryWhere(f)
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, text, mood, mood_confidence, mood_summary, mood_keywords, created_at
		FROM journal_entries
		WHERE `+where+`
		ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []EntryRow
	for rows.Next() {
		row, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}
	return entries, nil
}

// DeleteEntries removes the rows matching f. Matching nothing is not an error.
func (s *SQLiteStorage) DeleteEntries(ctx context.Context, f RowFilter) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDeleteFilter(f); err != nil {
		return err
	}

	where, args := entryWhere(f)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE `+where, args...); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	return nil
}

func entryWhere(f RowFilter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if f.ID != "" {
		clauses = append(clauses, "id = ?")
		args = append(args, f.ID)
	}
	if f.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, f.UserID)
	}
	return strings.Join(clauses, " AND "), args
}

func scanEntry(rows *sql.Rows) (EntryRow, error) {
	var (
		row        EntryRow
		mood       string
		keywords   string
		confidence sql.NullFloat64
		summary    sql.NullString
	)
	if err := rows.Scan(&row.ID, &row.UserID, &row.Text, &mood, &confidence, &summary, &keywords, &row.CreatedAt); err != nil {
		return EntryRow{}, fmt.Errorf("failed to scan entry: %w", err)
	}

	row.Mood = json.RawMessage(mood)
	if confidence.Valid {
		c := confidence.Float64
		row.MoodConfidence = &c
	}
	if summary.Valid {
		str := summary.String
		row.MoodSummary = &str
	}
	row.MoodKeywords = []string{}
	if keywords != "" {
		if err := json.Unmarshal([]byte(keywords), &row.MoodKeywords); err != nil {
			return EntryRow{}, fmt.Errorf("failed to decode keywords for entry %s: %w", row.ID, err)
		}
	}
	return row, nil
}
