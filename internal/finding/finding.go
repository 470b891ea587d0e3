// Package finding defines the core domain types for pitcrew.
package finding

// Finding represents a single normalized issue reported by a scanner tool.
type Finding struct {
	Tool        string            // Adapter name: "slither", "mythril", etc.
	Type        string            // Tool-specific check identifier: "reentrancy-eth", "SWC-107", etc.
	Severity    Severity          // Normalized severity.
	Confidence  string            // Tool-reported confidence, free-form ("High", "Medium", ...).
	Title       string            // Short description (used as report entry title).
	Description string            // Longer context from the tool.
	File        string            // POSIX-style path relative to the repo root ("" if unknown).
	Line        int               // 1-based line number (0 if unknown).
	Raw         map[string]string // Tool-specific extras, e.g. mythril's "swc_id".
}

// FilterMinSeverity returns the findings at or above min, preserving order.
func FilterMinSeverity(findings []Finding, min Severity) []Finding {
	result := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if f.Severity.AtLeast(min) {
			result = append(result, f)
		}
	}
	return result
}

// CountBySeverity tallies findings per severity level.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}
