package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPaths(t *testing.T) {
	tmpDir := t.TempDir()

	for _, file := range []string{"b.txt", "a.md", "photo.png", "sub/nested.txt"} {
		path := filepath.Join(tmpDir, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("text"), 0o600))
	}
	single := filepath.Join(tmpDir, "photo.png")

	paths, err := expandPaths([]string{tmpDir, single})
	require.NoError(t, err)

	// Directories are not walked recursively; explicit files are taken as given.
	assert.Equal(t, []string{
		filepath.Join(tmpDir, "a.md"),
		filepath.Join(tmpDir, "b.txt"),
		single,
	}, paths)
}

func TestExpandPaths_Missing(t *testing.T) {
	_, err := expandPaths([]string{filepath.Join(t.TempDir(), "nope.txt")})
	assert.Error(t, err)
}
