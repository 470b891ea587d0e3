// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package finding

import "strconv"

// Fingerprint computes the stable identity of a finding used for baseline
// comparison and deduplication. The key is: Tool + Type + File + Line,
// joined with "|". It depends on nothing else, so re-running the same
// tools over the same tree yields the same fingerprints.
func (f Finding) Fingerprint() string {
	return f.Tool + "|" + f.Type + "|" + f.File + "|" + strconv.Itoa(f.Line)
}

// Deduplicate removes findings that share a fingerprint. The first
// occurrence is kept and input order is preserved.
func Deduplicate(findings []Finding) []Finding {
	if len(findings) == 0 {
		return findings
	}

	seen := make(map[string]struct{}, len(findings))
	result := make([]Finding, 0, len(findings))

	for _, f := range findings {
		fp := f.Fingerprint()
		if _, exists := seen[fp]; exists {
			continue
		}
		seen[fp] = struct{}{}
		result = append(result, f)
	}

	return result
}

// Fingerprints maps findings to their fingerprint strings, in order.
func Fingerprints(findings []Finding) []string {
	fps := make([]string, len(findings))
	for i, f := range findings {
		fps[i] = f.Fingerprint()
	}
	return fps
}
