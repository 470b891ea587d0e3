// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package workspace

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/davetashner/pitcrew/internal/gitcli"
	"github.com/davetashner/pitcrew/internal/manifest"
)

// ChangedSolidityFiles returns the Solidity files changed between baseRef
// and headRef that are in scope for scanning, unique and in diff order.
// Callers normally pass "HEAD" as headRef after checking out the PR head.
func ChangedSolidityFiles(ctx context.Context, root, baseRef, headRef string, cfg manifest.ScanConfig) ([]string, error) {
	resolved := resolveBaseRef(ctx, root, baseRef)

	out, err := gitcli.Run(ctx, root, diffTimeout, "diff", "--name-only", resolved, headRef)
	if err != nil {
		return nil, &DiffError{Err: err}
	}

	var files []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		path := strings.TrimSpace(line)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		if inScope(root, path, cfg) {
			files = append(files, path)
		}
	}

	slog.Info("discovered changed Solidity files",
		"count", len(files), "base", resolved, "head", headRef)
	return files, nil
}

// inScope applies the manifest scope rules to one diff candidate. The path
// must still exist as a regular file (deletions and renames away drop out
// here), carry the .sol suffix, sit under contracts_path, and clear the
// ignore globs. Globs are tested against both the repo-relative path and
// the path relative to contracts_path, so "mocks/**" works no matter which
// root the manifest author had in mind.
func inScope(root, path string, cfg manifest.ScanConfig) bool {
	if !strings.HasSuffix(path, ".sol") {
		return false
	}
	if !fileExists(filepath.Join(root, path)) {
		return false
	}

	scoped := path
	if cfg.ContractsPath != "." {
		if path != cfg.ContractsPath && !strings.HasPrefix(path, cfg.ContractsPath+"/") {
			return false
		}
		scoped = strings.TrimPrefix(strings.TrimPrefix(path, cfg.ContractsPath), "/")
	}

	return !matchesAny(path, cfg.IgnorePaths) && !matchesAny(scoped, cfg.IgnorePaths)
}
