// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package triage produces an optional AI summary of scan findings for the
// top of a PR comment. Summaries are decoration: any failure here degrades
// to omission and must never fail a scan.
package triage

import (
	"context"

	"github.com/davetashner/pitcrew/internal/finding"
)

// Provider abstracts the summary backend behind a single synchronous call.
type Provider interface {
	// Summarize returns a short prose assessment of the findings.
	// Implementations must respect context cancellation and deadlines.
	Summarize(ctx context.Context, findings []finding.Finding) (string, error)
}
