package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/fatih/color"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

var entryIDPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// setupJournal points the global configuration at a fresh database and
// session directory.
func setupJournal(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("database.path", filepath.Join(dir, "journal.db"))
	viper.Set("auth.session_dir", filepath.Join(dir, "session"))
	return dir
}

func runJournal(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func signUp(t *testing.T) {
	t.Helper()
	out, err := runJournal(t, "correct horse\n", "auth", "signup", "--email", "me@example.com")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as me@example.com")
}

func TestFlow_WriteListShowDelete(t *testing.T) {
	setupJournal(t)
	signUp(t)

	out, err := runJournal(t, "", "write", "Quiet", "morning", "with", "coffee")
	require.NoError(t, err)
	require.Contains(t, out, "Saved entry")
	id := entryIDPattern.FindString(out)
	require.NotEmpty(t, id)

	out, err = runJournal(t, "Rainy afternoon\nstayed in\n", "write")
	require.NoError(t, err)
	require.Contains(t, out, "Saved entry")

	out, err = runJournal(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Quiet morning with coffee")
	assert.Contains(t, out, "Rainy afternoon ...")

	out, err = runJournal(t, "", "list", "--mood", "anger")
	require.NoError(t, err)
	assert.Contains(t, out, "No entries.")

	out, err = runJournal(t, "", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Quiet morning with coffee")
	assert.Contains(t, out, "Not analyzed.")

	out, err = runJournal(t, "n\n", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Kept.")

	_, err = runJournal(t, "", "delete", "--yes", id)
	require.NoError(t, err)

	_, err = runJournal(t, "", "show", id)
	assert.Error(t, err)
}

func TestFlow_WriteWithAnalysis(t *testing.T) {
	setupJournal(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{"happiness":0.9,"fear":0.1}}`)
	}))
	t.Cleanup(server.Close)
	viper.Set("analysis.endpoint", server.URL)
	signUp(t)

	out, err := runJournal(t, "", "write", "--analyze", "Got the job!")
	require.NoError(t, err)
	assert.Contains(t, out, "happiness")
	assert.Contains(t, out, "Saved entry")

	out, err = runJournal(t, "", "list", "--mood", "happiness")
	require.NoError(t, err)
	assert.Contains(t, out, "Got the job!")
	assert.Contains(t, out, "happiness 90%")

	out, err = runJournal(t, "", "list", "--mood", "fear")
	require.NoError(t, err)
	assert.NotContains(t, out, "Got the job!")
}

func TestFlow_AnalysisFailureStillSaves(t *testing.T) {
	setupJournal(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)
	viper.Set("analysis.endpoint", server.URL)
	signUp(t)

	out, err := runJournal(t, "", "write", "--analyze", "Long day")
	require.NoError(t, err)
	assert.Contains(t, out, "Saving without mood.")
	assert.Contains(t, out, "Saved entry")
}

func TestFlow_RequiresSignIn(t *testing.T) {
	setupJournal(t)

	for _, args := range [][]string{
		{"write", "hello"},
		{"list"},
		{"analyze", "hello"},
	} {
		_, err := runJournal(t, "", args...)
		require.Error(t, err, args)
		assert.Contains(t, common.UserMessage(err, ""), "Sign in first", args)
	}

	signUp(t)
	_, err := runJournal(t, "", "auth", "signout")
	require.NoError(t, err)

	out, err := runJournal(t, "", "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in.")
}

func TestFlow_AuthErrors(t *testing.T) {
	setupJournal(t)

	_, err := runJournal(t, "abc\n", "auth", "signup", "--email", "me@example.com")
	require.Error(t, err)
	assert.Contains(t, common.UserMessage(err, ""), "at least 6 characters")

	signUp(t)
	_, err = runJournal(t, "", "auth", "signout")
	require.NoError(t, err)

	_, err = runJournal(t, "wrong password\n", "auth", "signin", "--email", "me@example.com")
	require.Error(t, err)
	assert.Equal(t, "Wrong email or password.", common.UserMessage(err, ""))

	out, err := runJournal(t, "correct horse\n", "auth", "signin", "--email", "me@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as me@example.com")
}

func TestFlow_AnalyzeWithoutEndpoint(t *testing.T) {
	setupJournal(t)
	signUp(t)

	_, err := runJournal(t, "", "analyze", "hello")
	require.Error(t, err)
	assert.Contains(t, common.UserMessage(err, ""), "analysis.endpoint")
}

func TestFlow_Import(t *testing.T) {
	dir := setupJournal(t)
	signUp(t)

	notes := filepath.Join(dir, "notes")
	require.NoError(t, os.MkdirAll(notes, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(notes, "monday.txt"), []byte("Monday was fine"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(notes, "tuesday.md"), []byte("Tuesday was long"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(notes, "blank.txt"), []byte("  \n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(notes, "photo.jpg"), []byte("jpeg"), 0o600))

	out, err := runJournal(t, "", "import", notes)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 of 3 files.")
	assert.Contains(t, out, "1 blank files skipped.")

	out, err = runJournal(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Monday was fine")
	assert.Contains(t, out, "Tuesday was long")
}

func TestFlow_MigrateStatus(t *testing.T) {
	setupJournal(t)

	out, err := runJournal(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Database is at schema version")

	out, err = runJournal(t, "", "migrate", "--status")
	require.NoError(t, err)
	assert.NotContains(t, out, "Migrations pending")
}
