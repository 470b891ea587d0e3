// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package workspace

import (
	"path"
	"strings"
)

// matchesAny reports whether relPath matches any of the glob patterns.
// Patterns use forward slashes. A bare pattern without a separator, like
// "*.t.sol", applies to basenames anywhere in the tree. A "**" segment
// spans any number of path segments, so "node_modules/**" covers the whole
// subtree at the root without reaching into "src/node_modules", while
// "**/upgradeable/**" matches the directory at any depth.
func matchesAny(relPath string, patterns []string) bool {
	if relPath == "" {
		return false
	}
	segs := strings.Split(relPath, "/")
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, relPath); err == nil && ok {
			return true
		}
		if !strings.Contains(pattern, "/") && !strings.Contains(pattern, "**") {
			if ok, err := path.Match(pattern, segs[len(segs)-1]); err == nil && ok {
				return true
			}
			continue
		}
		if strings.Contains(pattern, "**") && matchSegments(strings.Split(pattern, "/"), segs) {
			return true
		}
	}
	return false
}

// matchSegments matches pattern segments against path segments, where a
// "**" segment spans zero or more path segments.
func matchSegments(pattern, segs []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(segs); i++ {
				if matchSegments(pattern[1:], segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		if ok, err := path.Match(pattern[0], segs[0]); err != nil || !ok {
			return false
		}
		pattern = pattern[1:]
		segs = segs[1:]
	}
	return len(segs) == 0
}
