// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package adapters

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davetashner/pitcrew/internal/adapter"
	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/manifest"
)

func init() {
	adapter.Register(&Mythril{})
}

// mythrilReportName is the fallback report location some mythril versions
// write instead of printing JSON to stdout.
const mythrilReportName = "mythril_report.json"

// Mythril wraps the myth symbolic execution tool.
type Mythril struct{}

// Name returns the adapter name used for registration and manifest lookup.
func (m *Mythril) Name() string { return "mythril" }

// DefaultSeverityMap maps mythril severity labels onto the shared scale.
func (m *Mythril) DefaultSeverityMap() map[string]finding.Severity {
	return map[string]finding.Severity{
		"high":   finding.High,
		"medium": finding.Medium,
		"low":    finding.Low,
	}
}

// mythrilReport mirrors the subset of myth's JSON output we consume.
type mythrilReport struct {
	Issues []mythrilIssue `json:"issues"`
}

type mythrilIssue struct {
	Title       string `json:"title"`
	Severity    string `json:"severity"`
	Confidence  string `json:"confidence"`
	Description string `json:"description"`
	Contract    string `json:"contract"`
	Function    string `json:"function"`
	SWCID       string `json:"swc-id"`
	SourceMap   string `json:"sourceMap"`
}

// Run executes myth analyze over the requested files, or the whole tree
// when files is nil. Mythril prints nothing at all when it finds no issues,
// so empty stdout and stderr together mean a clean scan, not a failure.
func (m *Mythril) Run(ctx context.Context, root string, files []string, cfg manifest.ScanConfig) ([]finding.Finding, string, error) {
	args := []string{"analyze"}
	if files != nil {
		args = append(args, files...)
	} else {
		args = append(args, ".")
	}
	args = append(args, "--max-depth", "3", "-o", "json")

	out, err := runTool(ctx, root, toolTimeout, "myth", args...)
	if err != nil {
		return nil, out.combined(), &adapter.ToolExecutionError{Tool: m.Name(), Err: err}
	}

	stdout := strings.TrimSpace(out.stdout)
	stderr := strings.TrimSpace(out.stderr)

	if stdout == "" {
		if stderr != "" {
			return nil, out.combined(), adapter.Failf(m.Name(), "no output, stderr: %s", firstLine(stderr))
		}
		return nil, out.combined(), nil
	}

	if out.exitCode != 0 {
		return nil, out.combined(), adapter.Failf(m.Name(),
			"exit code %d: %s", out.exitCode, firstLine(stderr))
	}

	var report mythrilReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		// Some versions write the report next to the contracts instead.
		data, readErr := FS.ReadFile(filepath.Join(root, mythrilReportName))
		if readErr != nil || json.Unmarshal(data, &report) != nil {
			return nil, out.combined(), adapter.Failf(m.Name(),
				"output was not valid JSON: %v", err)
		}
	}

	sevMap := m.DefaultSeverityMap()
	findings := make([]finding.Finding, 0, len(report.Issues))
	for _, issue := range report.Issues {
		confidence := "Medium"
		if issue.Confidence != "" {
			confidence = capitalize(issue.Confidence)
		}

		f := finding.Finding{
			Tool:        m.Name(),
			Type:        orUnknown(issue.Title),
			Severity:    severityFrom(sevMap, orInformational(issue.Severity)),
			Confidence:  confidence,
			Title:       orUnknown(issue.Title),
			Description: issue.Description,
			File:        m.attributeFile(issue, files),
			Line:        lineFromSourceMap(issue.SourceMap),
			Raw: map[string]string{
				"swc_id":   issue.SWCID,
				"function": issue.Function,
			},
		}
		findings = append(findings, f)
	}

	return finding.FilterMinSeverity(findings, cfg.MinSeverity), out.combined(), nil
}

// attributeFile picks which scanned file an issue belongs to. Mythril does
// not report file paths, so a single-file scan attributes everything to that
// file, and a multi-file scan matches the contract name against the paths.
func (m *Mythril) attributeFile(issue mythrilIssue, files []string) string {
	switch {
	case len(files) == 1:
		return filepath.ToSlash(files[0])
	case len(files) > 1:
		contract := strings.ToLower(issue.Contract)
		if contract != "" {
			for _, f := range files {
				if strings.Contains(strings.ToLower(f), contract) {
					return filepath.ToSlash(f)
				}
			}
		}
		return filepath.ToSlash(files[0])
	default:
		return "Unknown"
	}
}

// lineFromSourceMap approximates a line number from a Solidity source map
// entry ("offset:length:sourceIndex:jump"). Mythril reports byte offsets
// only, so this assumes roughly 40 bytes per line. Imprecise, but better
// than 0 for annotation placement.
func lineFromSourceMap(sourceMap string) int {
	if sourceMap == "" || sourceMap == "Unknown" {
		return 0
	}
	parts := strings.Split(sourceMap, ":")
	offset, err := strconv.Atoi(parts[0])
	if err != nil || offset <= 0 {
		return 0
	}
	line := offset / 40
	if line < 1 {
		line = 1
	}
	return line
}

func orInformational(s string) string {
	if s == "" {
		return "Informational"
	}
	return s
}
