// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package adapters

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/davetashner/pitcrew/internal/adapter"
	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/manifest"
)

func init() {
	adapter.Register(&Aderyn{})
}

// aderynTimeout bounds an aderyn run. Aderyn always analyzes the whole
// tree, so it gets twice the budget of the per-file tools.
const aderynTimeout = 600 * time.Second

// aderynReportName is the fallback report location when aderyn writes a
// file instead of printing JSON to stdout.
const aderynReportName = "aderyn_report.json"

// Aderyn wraps the aderyn AST analyzer. Aderyn is the optional tree-wide
// tool: any failure degrades to zero findings instead of failing the scan.
type Aderyn struct{}

// Name returns the adapter name used for registration and manifest lookup.
func (a *Aderyn) Name() string { return "aderyn" }

// DefaultSeverityMap maps aderyn labels onto the shared scale.
func (a *Aderyn) DefaultSeverityMap() map[string]finding.Severity {
	return map[string]finding.Severity{
		"critical":      finding.Critical,
		"high":          finding.High,
		"medium":        finding.Medium,
		"low":           finding.Low,
		"info":          finding.Low,
		"informational": finding.Low,
	}
}

// aderynReport mirrors the subset of aderyn's JSON output we consume.
type aderynReport struct {
	Issues []aderynIssue `json:"issues"`
}

type aderynIssue struct {
	Title       string `json:"title"`
	Name        string `json:"name"`
	Severity    string `json:"severity"`
	Confidence  string `json:"confidence"`
	Description string `json:"description"`
	File        string `json:"file"`
	Line        int    `json:"line"`
}

// Run executes aderyn over the whole tree. The files argument is ignored:
// aderyn has no per-file mode. Cancellation propagates; every other failure
// is logged and yields zero findings.
func (a *Aderyn) Run(ctx context.Context, root string, files []string, cfg manifest.ScanConfig) ([]finding.Finding, string, error) {
	if len(files) > 0 {
		slog.Debug("aderyn scans the whole tree, ignoring file list", "files", len(files))
	}

	out, err := runTool(ctx, root, aderynTimeout, "aderyn", root, "-o", "json")
	if err != nil {
		if ctx.Err() != nil {
			return nil, out.combined(), ctx.Err()
		}
		slog.Warn("aderyn unavailable, skipping", "error", err)
		return nil, out.combined(), nil
	}

	report, ok := a.parse(root, out)
	if !ok {
		return nil, out.combined(), nil
	}

	sevMap := a.DefaultSeverityMap()
	findings := make([]finding.Finding, 0, len(report.Issues))
	for _, issue := range report.Issues {
		title := issue.Title
		if title == "" {
			title = issue.Name
		}
		confidence := issue.Confidence
		if confidence == "" {
			confidence = "Unknown"
		}

		file := issue.File
		if filepath.IsAbs(file) {
			if rel, err := filepath.Rel(root, file); err == nil {
				file = rel
			}
		}

		findings = append(findings, finding.Finding{
			Tool:        a.Name(),
			Type:        orUnknown(title),
			Severity:    severityFrom(sevMap, orLow(issue.Severity)),
			Confidence:  confidence,
			Title:       orUnknown(title),
			Description: issue.Description,
			File:        filepath.ToSlash(file),
			Line:        issue.Line,
		})
	}

	return finding.FilterMinSeverity(findings, cfg.MinSeverity), out.combined(), nil
}

// parse extracts a report from stdout, falling back to the report file.
// No JSON anywhere usually means aderyn found nothing to say.
func (a *Aderyn) parse(root string, out toolOutput) (aderynReport, bool) {
	var report aderynReport

	if stdout := strings.TrimSpace(out.stdout); stdout != "" {
		if err := json.Unmarshal([]byte(stdout), &report); err == nil {
			return report, true
		}
		slog.Debug("aderyn stdout is not valid JSON, trying report file")
	}

	if data, err := FS.ReadFile(filepath.Join(root, aderynReportName)); err == nil {
		if err := json.Unmarshal(data, &report); err == nil {
			return report, true
		}
		slog.Warn("aderyn report file is not valid JSON")
	}

	if out.exitCode != 0 {
		slog.Warn("aderyn exited non-zero with no report", "exit_code", out.exitCode)
	}
	return aderynReport{}, false
}
