// Package journal holds the journal core: the Repository that maps stored
// rows to entries, the Manager that owns the in-memory entry collection, and
// the Session that composes a single new entry.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/mood-journal/internal/auth"
	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/Veraticus/mood-journal/internal/mood"
	"github.com/Veraticus/mood-journal/internal/storage"
)

// Store is the row store behind the Repository. Both storage.SQLiteStorage
// and storage.RESTStore implement it.
type Store interface {
	InsertEntry(ctx context.Context, row storage.EntryRow) (storage.EntryRow, error)
	SelectEntries(ctx context.Context, f storage.RowFilter) ([]storage.EntryRow, error)
	DeleteEntries(ctx context.Context, f storage.RowFilter) error
}

// Repository reads and writes the current user's entries. Every error it
// returns is a *RepoError.
type Repository struct {
	store    Store
	identity auth.Identity
	logger   *slog.Logger
	now      func() time.Time
}

// NewRepository creates a Repository scoped to whoever identity reports.
func NewRepository(store Store, identity auth.Identity, logger *slog.Logger) *Repository {
	return &Repository{
		store:    store,
		identity: identity,
		logger:   common.OrDefault(logger),
		now:      time.Now,
	}
}

func (r *Repository) currentUser() (string, error) {
	if r.identity == nil {
		return "", repoError(KindUnauthenticated, common.ErrUnauthenticated)
	}
	userID := strings.TrimSpace(r.identity.CurrentUserID())
	if userID == "" {
		return "", repoError(KindUnauthenticated, common.ErrUnauthenticated)
	}
	return userID, nil
}

// Create stores a new entry for the current user. Omitted mood fields default
// to the zero mood and empty extras.
func (r *Repository) Create(ctx context.Context, draft model.Draft) (model.JournalEntry, error) {
	userID, err := r.currentUser()
	if err != nil {
		return model.JournalEntry{}, err
	}
	if strings.TrimSpace(draft.Text) == "" {
		return model.JournalEntry{}, repoError(KindUnknown, common.ErrEmptyText)
	}

	row, err := draftRow(userID, draft, r.now().UTC())
	if err != nil {
		return model.JournalEntry{}, repoError(KindUnknown, err)
	}

	stored, err := r.store.InsertEntry(ctx, row)
	if err != nil {
		return model.JournalEntry{}, wrapStoreError("create entry", err)
	}

	entry := rowEntry(stored)
	r.logger.Debug("entry created", "id", entry.ID, "user_id", userID)
	return entry, nil
}

// List returns every entry owned by userID. Callers impose their own order.
func (r *Repository) List(ctx context.Context, userID string) ([]model.JournalEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, repoError(KindUnauthenticated, common.ErrUnauthenticated)
	}

	rows, err := r.store.SelectEntries(ctx, storage.RowFilter{UserID: userID})
	if err != nil {
		return nil, wrapStoreError("list entries", err)
	}

	entries := make([]model.JournalEntry, 0, len(rows))
	for _, row := range rows {
		if row.UserID != userID {
			continue
		}
		entries = append(entries, rowEntry(row))
	}
	return entries, nil
}

// Get returns one of the current user's entries. Someone else's entry reads
// as not found.
func (r *Repository) Get(ctx context.Context, id string) (model.JournalEntry, error) {
	userID, err := r.currentUser()
	if err != nil {
		return model.JournalEntry{}, err
	}
	if strings.TrimSpace(id) == "" {
		return model.JournalEntry{}, repoError(KindNotFound, common.ErrNotFound)
	}

	rows, err := r.store.SelectEntries(ctx, storage.RowFilter{ID: id, UserID: userID})
	if err != nil {
		return model.JournalEntry{}, wrapStoreError("get entry", err)
	}
	for _, row := range rows {
		if row.ID == id && row.UserID == userID {
			return rowEntry(row), nil
		}
	}
	return model.JournalEntry{}, repoError(KindNotFound, fmt.Errorf("entry %s: %w", id, common.ErrNotFound))
}

// Delete removes one of the current user's entries. Deleting an id that does
// not exist succeeds.
func (r *Repository) Delete(ctx context.Context, id string) error {
	userID, err := r.currentUser()
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return repoError(KindNotFound, errors.New("entry id is required"))
	}

	if err := r.store.DeleteEntries(ctx, storage.RowFilter{ID: id, UserID: userID}); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return wrapStoreError("delete entry", err)
	}
	r.logger.Debug("entry deleted", "id", id, "user_id", userID)
	return nil
}

func draftRow(userID string, draft model.Draft, now time.Time) (storage.EntryRow, error) {
	var m model.Mood
	if draft.Mood != nil {
		m = *draft.Mood
	}
	moodJSON, err := json.Marshal(m)
	if err != nil {
		return storage.EntryRow{}, fmt.Errorf("failed to encode mood: %w", err)
	}

	keywords := make([]string, 0, len(draft.MoodKeywords))
	keywords = append(keywords, draft.MoodKeywords...)

	return storage.EntryRow{
		UserID:         userID,
		Text:           draft.Text,
		Mood:           moodJSON,
		MoodConfidence: draft.MoodConfidence,
		MoodSummary:    draft.MoodSummary,
		MoodKeywords:   keywords,
		CreatedAt:      now,
	}, nil
}

// rowEntry converts a stored row. The stored mood goes through the normalizer
// so rows written by other clients still yield a complete mood.
func rowEntry(row storage.EntryRow) model.JournalEntry {
	keywords := make([]string, 0, len(row.MoodKeywords))
	keywords = append(keywords, row.MoodKeywords...)

	return model.JournalEntry{
		ID:             row.ID,
		UserID:         row.UserID,
		Text:           row.Text,
		Mood:           mood.Normalize(row.Mood),
		MoodConfidence: row.MoodConfidence,
		MoodSummary:    row.MoodSummary,
		MoodKeywords:   keywords,
		CreatedAt:      row.CreatedAt,
	}
}
