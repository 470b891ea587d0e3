// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package workspace manages per-job scan directories: creation, cloning,
// changed-file discovery, and cleanup.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// New creates a unique writable scan directory under the system temp root.
// The prefix makes stray directories easy to spot if cleanup ever fails.
func New() (string, error) {
	dir, err := os.MkdirTemp("", "audit_pit_*")
	if err != nil {
		return "", fmt.Errorf("creating workspace: %w", err)
	}
	slog.Info("created workspace", "dir", dir)
	return dir, nil
}

// Remove deletes the workspace and everything in it. Cleanup runs on every
// job exit path, so removing an already-removed workspace is success.
func Remove(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing workspace: %w", err)
	}
	slog.Debug("removed workspace", "dir", dir)
	return nil
}

// RepoRoot returns the repository root inside a workspace. Cloning into "."
// puts the work tree directly in the workspace; a clone without an explicit
// target leaves a single child directory, in which case we descend one level.
func RepoRoot(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return dir
	}
	return filepath.Join(dir, entries[0].Name())
}

// fileExists returns true if path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
