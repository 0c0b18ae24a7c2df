// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// RequireNative skips the test unless NEREON_NATIVE_TEST is set. Tests that
// call into a linked libnereon need the library and its headers installed.
func RequireNative(t *testing.T) {
	t.Helper()
	if os.Getenv("NEREON_NATIVE_TEST") == "" {
		t.Skip("Skipping test: requires NEREON_NATIVE_TEST environment")
	}
}

// WriteFile writes content to name inside a fresh temporary directory and
// returns the full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
