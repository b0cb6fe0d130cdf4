package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStorage opens a migrated database in a temp directory.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

func TestSQLiteStorage_Migrate(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))
	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))
}

func TestSQLiteStorage_InsertEntry(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	t.Run("assigns id and defaults", func(t *testing.T) {
		row, err := store.InsertEntry(ctx, EntryRow{UserID: "u1", Text: "Quiet morning"})
		require.NoError(t, err)
		assert.NotEmpty(t, row.ID)
		assert.False(t, row.CreatedAt.IsZero())
		assert.JSONEq(t, "{}", string(row.Mood))
		assert.Equal(t, []string{}, row.MoodKeywords)
	})

	t.Run("ignores caller supplied id", func(t *testing.T) {
		row, err := store.InsertEntry(ctx, EntryRow{ID: "mine", UserID: "u1", Text: "x"})
		require.NoError(t, err)
		assert.NotEqual(t, "mine", row.ID)
	})

	t.Run("round trips optional columns", func(t *testing.T) {
		created := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
		row, err := store.InsertEntry(ctx, EntryRow{
			UserID:         "u2",
			Text:           "Anxious about the exam",
			Mood:           json.RawMessage(`{"fear":0.8,"sadness":0.1}`),
			MoodConfidence: ptr(0.7),
			MoodSummary:    ptr("worried"),
			MoodKeywords:   []string{"exam", "sleep"},
			CreatedAt:      created,
		})
		require.NoError(t, err)

		rows, err := store.SelectEntries(ctx, RowFilter{ID: row.ID})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		got := rows[0]
		assert.Equal(t, "u2", got.UserID)
		assert.JSONEq(t, `{"fear":0.8,"sadness":0.1}`, string(got.Mood))
		require.NotNil(t, got.MoodConfidence)
		assert.InDelta(t, 0.7, *got.MoodConfidence, 1e-9)
		require.NotNil(t, got.MoodSummary)
		assert.Equal(t, "worried", *got.MoodSummary)
		assert.Equal(t, []string{"exam", "sleep"}, got.MoodKeywords)
		assert.True(t, created.Equal(got.CreatedAt), "created_at %v", got.CreatedAt)
	})

	t.Run("requires user and text", func(t *testing.T) {
		_, err := store.InsertEntry(ctx, EntryRow{Text: "orphan"})
		assert.ErrorIs(t, err, ErrEmptyString)
		_, err = store.InsertEntry(ctx, EntryRow{UserID: "u1", Text: "   "})
		assert.ErrorIs(t, err, ErrEmptyString)
	})
}

func TestSQLiteStorage_SelectEntries(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, user := range []string{"alice", "bob", "alice", "alice"} {
		_, err := store.InsertEntry(ctx, EntryRow{
			UserID:    user,
			Text:      "entry",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	rows, err := store.SelectEntries(ctx, RowFilter{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, "alice", r.UserID)
	}
	assert.True(t, rows[0].CreatedAt.After(rows[1].CreatedAt))

	rows, err = store.SelectEntries(ctx, RowFilter{UserID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, rows)

	// id and user together enforce ownership.
	bobRows, err := store.SelectEntries(ctx, RowFilter{UserID: "bob"})
	require.NoError(t, err)
	require.Len(t, bobRows, 1)
	rows, err = store.SelectEntries(ctx, RowFilter{ID: bobRows[0].ID, UserID: "alice"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLiteStorage_DeleteEntries(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	row, err := store.InsertEntry(ctx, EntryRow{UserID: "alice", Text: "to delete"})
	require.NoError(t, err)

	// Another user's filter does not remove it.
	require.NoError(t, store.DeleteEntries(ctx, RowFilter{ID: row.ID, UserID: "mallory"}))
	rows, err := store.SelectEntries(ctx, RowFilter{ID: row.ID})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	require.NoError(t, store.DeleteEntries(ctx, RowFilter{ID: row.ID, UserID: "alice"}))
	rows, err = store.SelectEntries(ctx, RowFilter{ID: row.ID})
	require.NoError(t, err)
	assert.Empty(t, rows)

	// Deleting again is fine.
	require.NoError(t, store.DeleteEntries(ctx, RowFilter{ID: row.ID, UserID: "alice"}))

	assert.ErrorIs(t, store.DeleteEntries(ctx, RowFilter{}), ErrEmptyFilter)
}

func TestSQLiteStorage_Users(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "Dana@Example.com", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	got, err := store.GetUserByEmail(ctx, "dana@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dana@Example.com", got.Email)

	_, err = store.CreateUser(ctx, "dana@example.com", "other")
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	_, err = store.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
