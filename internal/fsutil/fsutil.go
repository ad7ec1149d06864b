// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnsureDirAccessible verifies that dir exists, is a directory, and can be
// opened for reading. A root directory that fails this check aborts loading.
func EnsureDirAccessible(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("working directory %s is not accessible: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("working directory %s is not a directory", dir)
	}

	f, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("working directory %s cannot be read: %w", dir, err)
	}
	return f.Close()
}

// ListSubdirectories returns the full paths of the immediate subdirectories
// of dir, in directory order.
func ListSubdirectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, filepath.Join(dir, entry.Name()))
		}
	}
	return subdirs, nil
}

// CanonicalPath resolves path to an absolute path with symlinks evaluated.
// Registry maps are keyed by canonical paths so that two spellings of the
// same directory always hit the same entry.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return resolved, nil
}

// DeleteRecursively removes path and everything beneath it, retrying up to
// attempts times with the given delay between tries. Network and overlay
// filesystems occasionally fail a removal that succeeds moments later.
func DeleteRecursively(path string, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(delay)
		}
		err = os.RemoveAll(path)
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to delete %s after %d attempts: %w", path, attempts, err)
}
