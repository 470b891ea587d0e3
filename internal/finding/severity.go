// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package finding

import (
	"fmt"
	"log/slog"
	"strings"
)

// Severity ranks a finding's impact. The order is total:
// Informational < Low < Medium < High < Critical.
type Severity int

const (
	Informational Severity = iota
	Low
	Medium
	High
	Critical
)

var severityNames = [...]string{
	Informational: "Informational",
	Low:           "Low",
	Medium:        "Medium",
	High:          "High",
	Critical:      "Critical",
}

// String returns the canonical capitalized name, e.g. "High".
func (s Severity) String() string {
	if s < Informational || s > Critical {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// Rank returns the numeric position in the order, 0 (Informational)
// through 4 (Critical).
func (s Severity) Rank() int { return int(s) }

// AtLeast reports whether s is at or above threshold.
func (s Severity) AtLeast(threshold Severity) bool { return s >= threshold }

// ParseSeverity converts a tool-reported severity string into a Severity.
// Matching is case-insensitive. Unknown values map to Low and log a
// warning, so a tool adding a new label never breaks a scan.
func ParseSeverity(raw string) Severity {
	s, err := ParseSeverityStrict(raw)
	if err != nil {
		slog.Warn("unknown severity, defaulting to Low", "value", raw)
		return Low
	}
	return s
}

// ParseSeverityStrict is ParseSeverity without the lenient fallback.
// Manifest loading uses it so a typo in audit-pit-crew.yml rejects the
// document instead of silently weakening a threshold.
func ParseSeverityStrict(raw string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "informational":
		return Informational, nil
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	case "critical":
		return Critical, nil
	default:
		return Low, fmt.Errorf("unknown severity %q", raw)
	}
}
