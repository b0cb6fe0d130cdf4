// Package testutil provides shared test helpers: an isolated, migrated
// in-memory database and a fluent builder for journal entry rows.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/mood-journal/internal/storage"
)

// TestDB is a migrated in-memory database scoped to one test.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
	Entries []storage.EntryRow
}

// TestDBOptions configures SetupTestDBWithOptions.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Entries        []storage.EntryRow
	SkipMigrations bool
}

// SetupTestDB creates a migrated in-memory database seeded with entries.
// The database is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.NewEntryBuilder("user-1").
//			WithEntry("Good run this morning", testutil.Happy).
//			Build()...,
//	)
func SetupTestDB(t *testing.T, entries ...storage.EntryRow) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Entries: entries})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	seeded := make([]storage.EntryRow, 0, len(opts.Entries))
	for _, row := range opts.Entries {
		stored, err := store.InsertEntry(ctx, row)
		if err != nil {
			t.Fatalf("failed to seed entry %q: %v", row.Text, err)
		}
		seeded = append(seeded, stored)
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		Entries: seeded,
		t:       t,
	}
}

// MustCreateUser registers an account or fails the test.
func (db *TestDB) MustCreateUser(email string) *storage.User {
	db.t.Helper()
	user, err := db.Storage.CreateUser(context.Background(), email, "not-a-real-hash")
	if err != nil {
		db.t.Fatalf("failed to create user %q: %v", email, err)
	}
	return user
}
