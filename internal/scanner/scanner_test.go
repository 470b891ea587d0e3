// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/pitcrew/internal/adapter"
	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/manifest"
)

// fakeAdapter is a registry-compatible adapter driven by a closure.
type fakeAdapter struct {
	name    string
	runFunc func(ctx context.Context, root string, files []string, cfg manifest.ScanConfig) ([]finding.Finding, string, error)
	calls   int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) DefaultSeverityMap() map[string]finding.Severity { return nil }

func (f *fakeAdapter) Run(ctx context.Context, root string, files []string, cfg manifest.ScanConfig) ([]finding.Finding, string, error) {
	f.calls++
	return f.runFunc(ctx, root, files, cfg)
}

// static returns a fakeAdapter that always reports the given findings.
func static(name string, found ...finding.Finding) *fakeAdapter {
	return &fakeAdapter{
		name: name,
		runFunc: func(context.Context, string, []string, manifest.ScanConfig) ([]finding.Finding, string, error) {
			return found, "", nil
		},
	}
}

// failing returns a fakeAdapter that always fails to run.
func failing(name string) *fakeAdapter {
	return &fakeAdapter{
		name: name,
		runFunc: func(context.Context, string, []string, manifest.ScanConfig) ([]finding.Finding, string, error) {
			return nil, "tool output tail", adapter.Failf(name, "binary exploded")
		},
	}
}

func configFor(tools ...string) manifest.ScanConfig {
	cfg := manifest.Default()
	cfg.EnabledTools = tools
	return cfg
}

func TestScan_RunsToolsInOrder(t *testing.T) {
	first := finding.Finding{Tool: "order-a", Type: "reentrancy", File: "a.sol", Line: 10, Severity: finding.High}
	second := finding.Finding{Tool: "order-b", Type: "tx-origin", File: "b.sol", Line: 20, Severity: finding.Medium}

	var gotFiles []string
	a := &fakeAdapter{
		name: "order-a",
		runFunc: func(_ context.Context, _ string, files []string, _ manifest.ScanConfig) ([]finding.Finding, string, error) {
			gotFiles = files
			return []finding.Finding{first}, "", nil
		},
	}
	adapter.Register(a)
	adapter.Register(static("order-b", second))

	found, results := Scan(context.Background(), "/repo", []string{"contracts/Token.sol"}, configFor("order-a", "order-b"))

	assert.Equal(t, []finding.Finding{first, second}, found)
	assert.Equal(t, []string{"contracts/Token.sol"}, gotFiles)

	require.Len(t, results, 2)
	assert.Equal(t, "order-a", results[0].Tool)
	assert.Equal(t, "order-b", results[1].Tool)
	assert.Equal(t, 1, results[0].Findings)
	assert.NoError(t, results[0].Err)
}

func TestScan_SkipsUnregisteredTools(t *testing.T) {
	found := finding.Finding{Tool: "skip-real", Type: "assert-violation", File: "c.sol", Line: 3, Severity: finding.Low}
	adapter.Register(static("skip-real", found))

	got, results := Scan(context.Background(), "/repo", nil, configFor("skip-missing", "skip-real"))

	assert.Equal(t, []finding.Finding{found}, got)
	require.Len(t, results, 1, "unregistered tools should not produce results")
	assert.Equal(t, "skip-real", results[0].Tool)
}

func TestScan_ContinuesAfterToolFailure(t *testing.T) {
	survivor := finding.Finding{Tool: "fail-b", Type: "uninitialized-state", File: "d.sol", Line: 7, Severity: finding.High}
	adapter.Register(failing("fail-a"))
	adapter.Register(static("fail-b", survivor))

	got, results := Scan(context.Background(), "/repo", nil, configFor("fail-a", "fail-b"))

	assert.Equal(t, []finding.Finding{survivor}, got)
	require.Len(t, results, 2)
	require.Error(t, results[0].Err)

	var toolErr *adapter.ToolExecutionError
	assert.ErrorAs(t, results[0].Err, &toolErr)
	assert.NoError(t, results[1].Err)
}

func TestScan_AllToolsFailedIsEmptyNotFatal(t *testing.T) {
	adapter.Register(failing("allfail-a"))
	adapter.Register(failing("allfail-b"))

	got, results := Scan(context.Background(), "/repo", nil, configFor("allfail-a", "allfail-b"))

	assert.Empty(t, got)
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.Error(t, results[1].Err)
}

func TestScan_DeduplicatesByFingerprintFirstWins(t *testing.T) {
	original := finding.Finding{Tool: "slither", Type: "reentrancy-eth", File: "Vault.sol", Line: 42, Title: "first report", Severity: finding.High}
	duplicate := original
	duplicate.Title = "second report"
	crossTool := original
	crossTool.Title = "third report"
	distinct := finding.Finding{Tool: "dup-b", Type: "pragma", File: "Vault.sol", Line: 1, Severity: finding.Informational}

	adapter.Register(static("dup-a", original, duplicate))
	adapter.Register(static("dup-b", crossTool, distinct))

	got, _ := Scan(context.Background(), "/repo", nil, configFor("dup-a", "dup-b"))

	require.Len(t, got, 2)
	assert.Equal(t, "first report", got[0].Title)
	assert.Equal(t, distinct, got[1])
}

func TestScan_CancelledContextStopsRemainingTools(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cancelling := &fakeAdapter{
		name: "cancel-a",
		runFunc: func(ctx context.Context, _ string, _ []string, _ manifest.ScanConfig) ([]finding.Finding, string, error) {
			cancel()
			return nil, "", ctx.Err()
		},
	}
	after := static("cancel-b", finding.Finding{Tool: "cancel-b", Type: "x", File: "x.sol", Line: 1})
	adapter.Register(cancelling)
	adapter.Register(after)

	got, results := Scan(ctx, "/repo", nil, configFor("cancel-a", "cancel-b"))

	assert.Empty(t, got)
	require.Len(t, results, 1)
	assert.Equal(t, 0, after.calls, "tools after cancellation must not run")
}

func TestScan_NoEnabledTools(t *testing.T) {
	got, results := Scan(context.Background(), "/repo", nil, configFor())

	assert.Empty(t, got)
	assert.Empty(t, results)
}

func TestLogTail(t *testing.T) {
	assert.Equal(t, "short", logTail("  short\n"))

	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	tail := logTail(string(long))
	assert.Len(t, tail, 403)
	assert.Equal(t, "...", tail[:3])
}
