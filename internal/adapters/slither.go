// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package adapters

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"

	"github.com/davetashner/pitcrew/internal/adapter"
	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/manifest"
)

func init() {
	adapter.Register(&Slither{})
}

// slitherReportName is where slither is told to write its JSON report,
// relative to the repository root.
const slitherReportName = "slither_report.json"

// Slither wraps the slither static analyzer, the AST-pattern tool.
type Slither struct{}

// Name returns the adapter name used for registration and manifest lookup.
func (s *Slither) Name() string { return "slither" }

// DefaultSeverityMap maps slither impact labels onto the shared scale.
// Optimization notes carry no security weight.
func (s *Slither) DefaultSeverityMap() map[string]finding.Severity {
	return map[string]finding.Severity{
		"critical":      finding.Critical,
		"high":          finding.High,
		"medium":        finding.Medium,
		"low":           finding.Low,
		"informational": finding.Informational,
		"optimization":  finding.Informational,
	}
}

// slitherReport mirrors the subset of slither's JSON report we consume.
type slitherReport struct {
	Success bool `json:"success"`
	Results struct {
		Detectors []slitherDetector `json:"detectors"`
	} `json:"results"`
}

type slitherDetector struct {
	Check       string           `json:"check"`
	Impact      string           `json:"impact"`
	Confidence  string           `json:"confidence"`
	Description string           `json:"description"`
	Elements    []slitherElement `json:"elements"`
}

type slitherElement struct {
	SourceMapping struct {
		FilenameRelative string `json:"filename_relative"`
		Lines            []int  `json:"lines"`
	} `json:"source_mapping"`
}

// Run executes slither and parses its report file. Slither exits non-zero
// when it finds issues, so success is judged by the report file alone.
func (s *Slither) Run(ctx context.Context, root string, files []string, cfg manifest.ScanConfig) ([]finding.Finding, string, error) {
	targets := s.targets(root, files)

	reportPath := filepath.Join(root, slitherReportName)
	args := make([]string, 0, len(targets)+3)
	args = append(args, targets...)
	args = append(args, "--exclude-dependencies", "--json", reportPath)

	out, err := runTool(ctx, root, toolTimeout, "slither", args...)
	if err != nil {
		return nil, out.combined(), &adapter.ToolExecutionError{Tool: s.Name(), Err: err}
	}

	data, readErr := FS.ReadFile(reportPath)
	if readErr != nil {
		return nil, out.combined(), adapter.Failf(s.Name(),
			"no report file (exit code %d): %s", out.exitCode, firstLine(out.stderr))
	}

	var report slitherReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, out.combined(), adapter.Failf(s.Name(),
			"unparseable report (exit code %d): %v", out.exitCode, err)
	}

	if !report.Success {
		slog.Warn("slither report indicates failure, treating as empty", "exit_code", out.exitCode)
		return nil, out.combined(), nil
	}

	sevMap := s.DefaultSeverityMap()
	findings := make([]finding.Finding, 0, len(report.Results.Detectors))
	for _, det := range report.Results.Detectors {
		impact := det.Impact
		if impact == "" {
			impact = "Informational"
		}
		confidence := det.Confidence
		if confidence == "" {
			confidence = "Low"
		}

		f := finding.Finding{
			Tool:        s.Name(),
			Type:        orUnknown(det.Check),
			Severity:    severityFrom(sevMap, impact),
			Confidence:  capitalize(confidence),
			Title:       firstLine(det.Description),
			Description: det.Description,
		}
		if len(det.Elements) > 0 {
			sm := det.Elements[0].SourceMapping
			f.File = filepath.ToSlash(sm.FilenameRelative)
			if len(sm.Lines) > 0 {
				f.Line = sm.Lines[0]
			}
		}
		findings = append(findings, f)
	}

	return finding.FilterMinSeverity(findings, cfg.MinSeverity), out.combined(), nil
}

// targets verifies the requested files exist and falls back to a full scan
// of the root when none do. A stale diff must not abort the whole job.
func (s *Slither) targets(root string, files []string) []string {
	if files == nil {
		return []string{"."}
	}

	existing := make([]string, 0, len(files))
	for _, f := range files {
		info, err := FS.Stat(filepath.Join(root, f))
		if err != nil || !info.Mode().IsRegular() {
			slog.Warn("slither target missing, skipping", "file", f)
			continue
		}
		existing = append(existing, f)
	}
	if len(existing) == 0 {
		slog.Warn("no slither targets exist on disk, falling back to full scan")
		return []string{"."}
	}
	return existing
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
