// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package adapters

import (
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/davetashner/pitcrew/internal/adapter"
	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/manifest"
)

func init() {
	adapter.Register(&Oyente{})
}

// Oyente wraps the oyente bytecode analyzer. Oyente only accepts one file
// per invocation, so the adapter loops over its targets and tolerates
// individual failures.
type Oyente struct{}

// Name returns the adapter name used for registration and manifest lookup.
func (o *Oyente) Name() string { return "oyente" }

// DefaultSeverityMap maps oyente labels onto the shared scale. Oyente's
// "warning" carries real weight, while its info-grade labels collapse to Low.
func (o *Oyente) DefaultSeverityMap() map[string]finding.Severity {
	return map[string]finding.Severity{
		"critical":      finding.Critical,
		"high":          finding.High,
		"medium":        finding.Medium,
		"warning":       finding.Medium,
		"low":           finding.Low,
		"informational": finding.Low,
		"info":          finding.Low,
		"note":          finding.Low,
	}
}

// oyenteReport mirrors the subset of oyente's JSON output we consume.
type oyenteReport struct {
	Issues []oyenteIssue `json:"issues"`
}

type oyenteIssue struct {
	Title       string `json:"title"`
	Name        string `json:"name"`
	Severity    string `json:"severity"`
	Confidence  string `json:"confidence"`
	Description string `json:"description"`
	Line        int    `json:"line"`
}

// Run scans each target file with a separate oyente invocation. A file that
// fails is skipped with a warning; the adapter fails only when every file
// does, so one broken contract cannot hide results from the rest.
func (o *Oyente) Run(ctx context.Context, root string, files []string, cfg manifest.ScanConfig) ([]finding.Finding, string, error) {
	if files == nil {
		discovered, err := solidityFiles(root)
		if err != nil {
			return nil, "", adapter.Failf(o.Name(), "walking tree: %v", err)
		}
		files = discovered
	}
	if len(files) == 0 {
		slog.Warn("no Solidity files found for oyente scan")
		return nil, "", nil
	}

	sevMap := o.DefaultSeverityMap()
	var findings []finding.Finding
	var logs []string
	failures := 0
	var lastErr error

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, strings.Join(logs, "\n"), err
		}

		info, err := FS.Stat(filepath.Join(root, file))
		if err != nil || !info.Mode().IsRegular() {
			slog.Warn("oyente target missing, skipping", "file", file)
			continue
		}

		out, err := runTool(ctx, root, toolTimeout, "oyente", "-s", file, "-j")
		if combined := out.combined(); combined != "" {
			logs = append(logs, combined)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, strings.Join(logs, "\n"), err
			}
			slog.Warn("oyente failed on file, continuing", "file", file, "error", err)
			failures++
			lastErr = err
			continue
		}

		report, ok := o.parse(out, file)
		if !ok {
			continue
		}
		for _, issue := range report.Issues {
			title := issue.Title
			if title == "" {
				title = issue.Name
			}
			confidence := issue.Confidence
			if confidence == "" {
				confidence = "Unknown"
			}
			findings = append(findings, finding.Finding{
				Tool:        o.Name(),
				Type:        orUnknown(title),
				Severity:    severityFrom(sevMap, orLow(issue.Severity)),
				Confidence:  confidence,
				Title:       orUnknown(title),
				Description: issue.Description,
				File:        filepath.ToSlash(file),
				Line:        issue.Line,
			})
		}
	}

	if failures > 0 && failures == len(files) {
		return nil, strings.Join(logs, "\n"), &adapter.ToolExecutionError{Tool: o.Name(), Err: lastErr}
	}

	return finding.FilterMinSeverity(findings, cfg.MinSeverity), strings.Join(logs, "\n"), nil
}

// parse extracts a report from one invocation. Oyente writes nothing useful
// on a clean contract, so unparseable or empty output counts as no issues.
func (o *Oyente) parse(out toolOutput, file string) (oyenteReport, bool) {
	stdout := strings.TrimSpace(out.stdout)
	if stdout == "" {
		if out.exitCode != 0 {
			slog.Warn("oyente exited non-zero with no output", "file", file, "exit_code", out.exitCode)
		}
		return oyenteReport{}, false
	}

	var report oyenteReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		slog.Warn("oyente output is not valid JSON, skipping", "file", file, "error", err)
		return oyenteReport{}, false
	}
	return report, true
}

// solidityFiles walks root for .sol files, skipping hidden directories and
// node_modules. Paths are returned relative to root in walk order.
func solidityFiles(root string) ([]string, error) {
	var files []string
	err := FS.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := d.Name()
		if d.IsDir() {
			if p != root && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(name, ".sol") {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	return files, err
}

func orLow(s string) string {
	if s == "" {
		return "low"
	}
	return s
}
