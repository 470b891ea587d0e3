// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package workspace

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/davetashner/pitcrew/internal/gitcli"
	"github.com/davetashner/pitcrew/internal/redact"
)

// Per-operation git timeouts. Clone moves the most data and gets the
// largest budget.
const (
	cloneTimeout    = 120 * time.Second
	fetchTimeout    = 30 * time.Second
	revParseTimeout = 10 * time.Second
	diffTimeout     = 30 * time.Second
	checkoutTimeout = 30 * time.Second
)

// Clone clones cloneURL into dir. A non-empty token is injected into the
// URL in memory only, and registered with redact first so it cannot leak
// through logs or error text. Shallow clones serve baseline scans, which
// do not need history; PR scans clone full history for the diff.
func Clone(ctx context.Context, dir, cloneURL, token string, shallow bool) error {
	authURL := cloneURL
	if token != "" && strings.HasPrefix(cloneURL, "https://") {
		redact.RegisterSecret(token)
		authURL = "https://x-access-token:" + token + "@" + strings.TrimPrefix(cloneURL, "https://")
	}

	args := []string{"clone"}
	if shallow {
		args = append(args, "--depth", "1")
	}
	args = append(args, authURL, ".")

	if _, err := gitcli.Run(ctx, dir, cloneTimeout, args...); err != nil {
		return &CloneError{Err: err}
	}
	slog.Info("clone complete", "repo", redact.String(cloneURL), "shallow", shallow)
	return nil
}

// FetchBaseRef fetches baseRef from origin so diffs can resolve it. Failure
// is downgraded to a warning, because baseRef may be a SHA that is already
// reachable locally. Only cancellation surfaces as an error.
func FetchBaseRef(ctx context.Context, root, baseRef string) error {
	if _, err := gitcli.Run(ctx, root, fetchTimeout, "fetch", "origin", baseRef); err != nil {
		if ctx.Err() != nil {
			return &FetchError{Err: err}
		}
		slog.Warn("fetching base ref failed, proceeding", "ref", baseRef, "error", err)
	}
	return nil
}

// Checkout moves the work tree to ref.
func Checkout(ctx context.Context, root, ref string) error {
	if _, err := gitcli.Run(ctx, root, checkoutTimeout, "checkout", ref); err != nil {
		return &CheckoutError{Err: err}
	}
	return nil
}

// resolveBaseRef resolves baseRef to something diffable. PR payloads carry
// branch names that often exist only as remote-tracking refs after a fetch,
// so origin/<ref> is tried second. An unresolvable ref is returned as given
// and left for the diff to reject.
func resolveBaseRef(ctx context.Context, root, baseRef string) string {
	if _, err := gitcli.Run(ctx, root, revParseTimeout, "rev-parse", "--verify", baseRef); err == nil {
		return baseRef
	}
	remote := "origin/" + baseRef
	if _, err := gitcli.Run(ctx, root, revParseTimeout, "rev-parse", "--verify", remote); err == nil {
		return remote
	}
	slog.Warn("could not resolve base ref, using as given", "ref", baseRef)
	return baseRef
}
