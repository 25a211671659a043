// Package fsops provides the filesystem operations used by the patcher.
//
// Every write goes through AtomicWrite (temp file in the target directory,
// fsync, rename), so an overlay on disk is either the old document or the
// new one, never a partial file.
package fsops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// OverlayExt is the extension of overlay documents.
const OverlayExt = ".yaml"

// FS abstracts the filesystem for the patcher.
type FS interface {
	// Stat returns file info, following symlinks.
	Stat(path string) (os.FileInfo, error)

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// AtomicWrite writes data to path atomically using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// ListOverlays returns the overlay files directly under dir, sorted by
	// name, skipping any whose base name is in exclude.
	ListOverlays(dir string, exclude map[string]bool) ([]string, error)
}

// RealFS implements FS using actual OS operations.
type RealFS struct{}

// NewRealFS creates a new RealFS.
func NewRealFS() *RealFS {
	return &RealFS{}
}

// Stat returns file info, following symlinks.
func (fs *RealFS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads the entire contents of a file.
func (fs *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ListOverlays returns the *.yaml files directly under dir, sorted by name.
// Subdirectories are not descended into.
func (fs *RealFS) ListOverlays(dir string, exclude map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read overlays directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != OverlayExt {
			continue
		}
		if exclude[name] {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// AtomicWrite writes data to path atomically using temp file + rename.
// A symlinked path is resolved first so the rename replaces the link's
// target and the link itself survives.
func (fs *RealFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	resolved, err := filepath.EvalSymlinks(path)
	switch {
	case err == nil:
		path = resolved
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	dir := filepath.Dir(path)

	// Create temp file in the same directory as target so rename stays on
	// one filesystem
	tmpFile, err := os.CreateTemp(dir, ".overlay409-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	// Success - don't clean up temp file
	tmpFile = nil
	return nil
}
