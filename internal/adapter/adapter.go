// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package adapter defines the scanner Adapter interface and a registry for
// managing available tool adapters.
package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/manifest"
)

// Adapter wraps one external security tool and normalizes its output.
type Adapter interface {
	// Name returns the unique name of this adapter (e.g., "slither", "mythril").
	Name() string

	// DefaultSeverityMap returns the tool-label to Severity mapping applied
	// when normalizing this tool's raw output. Labels are matched
	// case-insensitively; unmapped labels go through finding.ParseSeverity.
	DefaultSeverityMap() map[string]finding.Severity

	// Run executes the tool against the repository rooted at root. A nil
	// files slice means scan the whole tree; otherwise only the listed
	// repo-relative files are scanned. The returned string is the captured
	// tool output for diagnostics. Failures are *ToolExecutionError: an
	// adapter must never report "no findings" when the tool did not
	// actually run.
	Run(ctx context.Context, root string, files []string, cfg manifest.ScanConfig) ([]finding.Finding, string, error)
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Adapter)
)

// Register adds an adapter to the global registry.
// It panics if an adapter with the same name is already registered.
func Register(a Adapter) {
	mu.Lock()
	defer mu.Unlock()
	name := a.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("adapter already registered: %s", name))
	}
	registry[name] = a
}

// Get returns the adapter with the given name, or nil if not found.
func Get(name string) Adapter {
	mu.RLock()
	defer mu.RUnlock()
	return registry[name]
}

// Names returns the names of all registered adapters, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resetForTesting clears the registry. Only for use in tests.
func resetForTesting() {
	mu.Lock()
	defer mu.Unlock()
	registry = make(map[string]Adapter)
}
