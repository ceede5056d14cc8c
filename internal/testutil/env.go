// Package testutil provides helpers for testing the installer in
// isolation from the host's real environment and filesystem.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env returns an environment lookup backed only by the given map, so
// config tests never observe INSTALL_ACORN_* variables from the host.
func Env(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

// WriteExecutable creates an executable file with the given content,
// standing in for an installed binary.
func WriteExecutable(t *testing.T, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteFile creates a non-executable file, creating parent directories.
func WriteFile(t *testing.T, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
