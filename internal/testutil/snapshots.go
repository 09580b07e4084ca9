package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"countycricket-live/internal/artifacts"
)

// NewTempWriter returns an artifact writer rooted in a temp dir.
func NewTempWriter(t *testing.T, retention int) *artifacts.Writer {
	t.Helper()
	return artifacts.NewWriter(t.TempDir(), retention)
}

// WriteFeed writes body as the feed artifact under dir.
func WriteFeed(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, artifacts.FeedFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write feed %s: %v", path, err)
	}
	return path
}
