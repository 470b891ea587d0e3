// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/redact"
	"github.com/davetashner/pitcrew/internal/remediation"
)

// runTag marks pitcrew's comment on a PR so re-scans update it in place
// instead of stacking new comments.
const runTag = "<!-- audit-pit-crew-report-v1 -->"

// cleanMessage is posted when a PR scan finds nothing new.
const cleanMessage = "✅ **Scan Complete:** No Critical or High severity issues found. Great job!"

// maxDetailedFindings bounds the per-finding detail in check-run text.
const maxDetailedFindings = 20

var severityEmoji = map[finding.Severity]string{
	finding.Critical:      "🔴",
	finding.High:          "🟠",
	finding.Medium:        "🟡",
	finding.Low:           "🔵",
	finding.Informational: "⚪",
}

// sortForReport orders findings by severity descending, then file
// ascending, then line ascending.
func sortForReport(findings []finding.Finding) []finding.Finding {
	sorted := make([]finding.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity != sorted[j].Severity {
			return sorted[i].Severity > sorted[j].Severity
		}
		if sorted[i].File != sorted[j].File {
			return sorted[i].File < sorted[j].File
		}
		return sorted[i].Line < sorted[j].Line
	})
	return sorted
}

// commentBody renders the PR comment for the given new findings. summary,
// when non-empty, is the triage note shown under the header.
func commentBody(findings []finding.Finding, summary string) string {
	var b strings.Builder
	b.WriteString(runTag)
	b.WriteString("\n")

	if len(findings) == 0 {
		b.WriteString(cleanMessage)
		b.WriteString("\n")
		return b.String()
	}

	fmt.Fprintf(&b, "## 🚨 Audit Pit-Crew Security Report (%d Findings)\n\n", len(findings))

	if summary != "" {
		fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(summary, "\n", "\n> "))
	}

	sorted := sortForReport(findings)
	var current finding.Severity = -1
	for _, f := range sorted {
		if f.Severity != current {
			current = f.Severity
			fmt.Fprintf(&b, "### %s %s\n\n", severityEmoji[f.Severity], f.Severity)
		}
		writeFindingEntry(&b, f)
	}

	return b.String()
}

// writeFindingEntry renders one finding as a list item with optional
// remediation guidance.
func writeFindingEntry(b *strings.Builder, f finding.Finding) {
	title := f.Title
	if title == "" {
		title = f.Type
	}

	fmt.Fprintf(b, "- **[%s] %s** — %s", f.Tool, f.Type, title)
	if f.File != "" && f.File != "Unknown" {
		fmt.Fprintf(b, " (`%s:%d`)", f.File, f.Line)
	}
	b.WriteString("\n")

	if desc := strings.TrimSpace(f.Description); desc != "" && desc != title {
		fmt.Fprintf(b, "  %s\n", firstParagraph(desc))
	}

	if entry, ok := lookupGuidance(f); ok {
		fmt.Fprintf(b, "  > 💡 **%s** — %s", entry.Title, entry.Summary)
		if len(entry.References) > 0 {
			fmt.Fprintf(b, " ([reference](%s))", entry.References[0])
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// lookupGuidance resolves remediation guidance by detector type, falling
// back to mythril's SWC id.
func lookupGuidance(f finding.Finding) (remediation.Entry, bool) {
	if entry, ok := remediation.Lookup(f.Type); ok {
		return entry, ok
	}
	if swc := f.Raw["swc_id"]; swc != "" {
		return remediation.Lookup(swc)
	}
	return remediation.Entry{}, false
}

// errorBody renders the operational-failure comment. The error text is
// redacted; no stack traces, no secrets.
func errorBody(scanErr error) string {
	return runTag + "\n" +
		"## ⚠️ Audit Pit-Crew could not complete this scan\n\n" +
		"```\n" + redact.String(scanErr.Error()) + "\n```\n\n" +
		"The check has been marked `action_required`. Push a new commit to retry.\n"
}

// checkSummary renders the severity-count table for check-run output.
func checkSummary(findings []finding.Finding) string {
	if len(findings) == 0 {
		return "No new findings."
	}

	counts := finding.CountBySeverity(findings)
	var b strings.Builder
	fmt.Fprintf(&b, "%d new finding(s).\n\n", len(findings))
	b.WriteString("| Severity | Count |\n|---|---|\n")
	for s := finding.Critical; s >= finding.Informational; s-- {
		if counts[s] > 0 {
			fmt.Fprintf(&b, "| %s | %d |\n", s, counts[s])
		}
	}
	return b.String()
}

// checkText renders the detailed finding list for check-run output,
// capped at maxDetailedFindings entries.
func checkText(findings []finding.Finding) string {
	if len(findings) == 0 {
		return ""
	}

	sorted := sortForReport(findings)
	var b strings.Builder
	for i, f := range sorted {
		if i == maxDetailedFindings {
			fmt.Fprintf(&b, "...and %d more.\n", len(sorted)-maxDetailedFindings)
			break
		}
		title := f.Title
		if title == "" {
			title = f.Type
		}
		fmt.Fprintf(&b, "%d. **[%s] %s** `%s:%d` — %s\n", i+1, f.Tool, f.Type, f.File, f.Line, title)
	}
	return b.String()
}

// firstParagraph trims a description to its first paragraph.
func firstParagraph(s string) string {
	if i := strings.Index(s, "\n\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// truncate hard-caps s at max bytes.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
