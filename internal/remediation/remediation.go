// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package remediation maps detector identifiers to fix guidance. The
// catalog is baked into the binary so reports render the same guidance
// everywhere, with no runtime file to drift.
package remediation

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Entry is the guidance attached to one detector identifier.
type Entry struct {
	Title      string   `toml:"title"`
	Summary    string   `toml:"summary"`
	References []string `toml:"references"`
}

//go:embed catalog.toml
var catalogTOML []byte

var catalog map[string]Entry

func init() {
	if err := toml.Unmarshal(catalogTOML, &catalog); err != nil {
		panic(fmt.Sprintf("remediation: embedded catalog is invalid: %v", err))
	}
}

// Lookup resolves a detector identifier to its catalog entry. Matching is
// case-insensitive and accepts both "SWC-107" and bare "107" for SWC ids.
func Lookup(id string) (Entry, bool) {
	key := strings.ToLower(strings.TrimSpace(id))
	key = strings.TrimPrefix(key, "swc-")
	e, ok := catalog[key]
	return e, ok
}
