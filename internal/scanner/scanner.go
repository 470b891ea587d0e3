// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package scanner runs the enabled tool adapters over a checkout and merges
// their findings into one deduplicated list.
package scanner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/davetashner/pitcrew/internal/adapter"
	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/manifest"
	"github.com/davetashner/pitcrew/internal/redact"
)

// ToolResult records one adapter's contribution to a scan.
type ToolResult struct {
	Tool     string
	Findings int
	Duration time.Duration
	Err      error
}

// Scan runs cfg.EnabledTools in order against the repository rooted at
// root. A nil files slice scans the whole tree. Tool failures are recorded
// in the returned ToolResults and do not abort the scan; when every enabled
// tool fails the result is simply empty. Findings are concatenated in tool
// order and deduplicated by fingerprint, first occurrence winning.
func Scan(ctx context.Context, root string, files []string, cfg manifest.ScanConfig) ([]finding.Finding, []ToolResult) {
	start := time.Now()

	var all []finding.Finding
	var results []ToolResult
	failed := 0

	for _, name := range cfg.EnabledTools {
		a := adapter.Get(name)
		if a == nil {
			slog.Warn("no adapter registered for tool, skipping", "tool", name)
			continue
		}

		found, output, result := runAdapter(ctx, a, root, files, cfg)
		results = append(results, result)

		if result.Err != nil {
			failed++
			slog.Warn("scanner tool failed",
				"tool", result.Tool,
				"duration", result.Duration,
				"error", result.Err,
				"output", redact.String(logTail(output)))
			if ctx.Err() != nil {
				// The remaining tools would all fail the same way.
				break
			}
			continue
		}

		slog.Info("scanner tool finished",
			"tool", result.Tool, "findings", result.Findings, "duration", result.Duration)
		all = append(all, found...)
	}

	if len(results) > 0 && failed == len(results) {
		slog.Warn("every enabled scanner failed, reporting zero findings", "tools", failed)
	}

	merged := finding.Deduplicate(all)
	slog.Info("scan complete",
		"tools", len(results),
		"failed", failed,
		"findings", len(merged),
		"duration", time.Since(start))
	return merged, results
}

// runAdapter executes a single adapter and captures its result and timing.
func runAdapter(ctx context.Context, a adapter.Adapter, root string, files []string, cfg manifest.ScanConfig) ([]finding.Finding, string, ToolResult) {
	start := time.Now()
	found, output, err := a.Run(ctx, root, files, cfg)
	return found, output, ToolResult{
		Tool:     a.Name(),
		Findings: len(found),
		Duration: time.Since(start),
		Err:      err,
	}
}

// logTail trims tool output to its last few hundred bytes so a chatty
// scanner cannot flood the log.
func logTail(s string) string {
	const max = 400
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
