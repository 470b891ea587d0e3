// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package workspace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/davetashner/pitcrew/internal/testable"
)

// Git is the repository opener used for remote discovery.
// Override in tests with a testable.MockGitOpener.
var Git testable.GitOpener = testable.DefaultGitOpener

// RemoteURL returns the origin fetch URL of the repository at dir, falling
// back to the first configured remote when origin is absent.
func RemoteURL(dir string) (string, error) {
	repo, err := Git.PlainOpen(dir)
	if err != nil {
		return "", fmt.Errorf("opening repository: %w", err)
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return "", fmt.Errorf("listing remotes: %w", err)
	}
	for _, r := range remotes {
		cfg := r.Config()
		if cfg.Name == "origin" && len(cfg.URLs) > 0 {
			return cfg.URLs[0], nil
		}
	}
	for _, r := range remotes {
		if cfg := r.Config(); len(cfg.URLs) > 0 {
			return cfg.URLs[0], nil
		}
	}
	return "", errors.New("no remotes configured")
}

// ParseRemote extracts owner and repo from a git remote URL. It accepts
// https, ssh, and scp-like syntaxes and strips a trailing ".git".
func ParseRemote(url string) (owner, repo string, err error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(url), "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")

	var loc string
	switch {
	case strings.Contains(trimmed, "://"):
		// https://github.com/owner/repo, ssh://git@github.com/owner/repo
		rest := trimmed[strings.Index(trimmed, "://")+3:]
		segs := strings.Split(rest, "/")
		if len(segs) < 3 {
			return "", "", fmt.Errorf("unrecognized remote URL %q", url)
		}
		loc = strings.Join(segs[len(segs)-2:], "/")
	case strings.Contains(trimmed, ":"):
		// git@github.com:owner/repo
		loc = trimmed[strings.Index(trimmed, ":")+1:]
	default:
		loc = trimmed
	}

	segs := strings.Split(loc, "/")
	if len(segs) < 2 || segs[len(segs)-2] == "" || segs[len(segs)-1] == "" {
		return "", "", fmt.Errorf("unrecognized remote URL %q", url)
	}
	return segs[len(segs)-2], segs[len(segs)-1], nil
}
