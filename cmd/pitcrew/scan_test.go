// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/pitcrew/internal/adapter"
	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/gitcli"
	"github.com/davetashner/pitcrew/internal/manifest"
	"github.com/davetashner/pitcrew/internal/testable"
)

// fakeAdapter stands in for a real tool so scan tests never shell out.
// Its results are controlled through the package vars below.
type fakeAdapter struct{}

var (
	fakeFindings []finding.Finding
	fakeErr      error
)

func (fakeAdapter) Name() string { return "fake" }

func (fakeAdapter) DefaultSeverityMap() map[string]finding.Severity { return nil }

func (fakeAdapter) Run(context.Context, string, []string, manifest.ScanConfig) ([]finding.Finding, string, error) {
	if fakeErr != nil {
		return nil, "tool exploded", fakeErr
	}
	return fakeFindings, "ok", nil
}

func init() {
	adapter.Register(fakeAdapter{})
	color.NoColor = true
}

// resetScanFlags resets all package-level scan flags to their defaults.
// Call before each test that invokes runLocalScan to avoid contamination.
func resetScanFlags() {
	scanPath = "."
	scanBaseline = false
	scanBase = ""
	scanHead = "HEAD"
	scanJSON = false

	scanCmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
		_ = f.Value.Set(f.DefValue)
	})
}

// testRepo creates a temp directory with one contract and a manifest that
// enables only the fake adapter.
func testRepo(t *testing.T, blockOn string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Vault.sol"),
		[]byte("contract Vault {}\n"), 0o644))
	content := fmt.Sprintf("scan:\n  enabled_tools: [fake]\n  block_on_severity: %s\n", blockOn)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "audit-pit-crew.yml"),
		[]byte(content), 0o644))
	return dir
}

func runScanCommand(t *testing.T) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	scanCmd.SetOut(&buf)
	scanCmd.SetContext(context.Background())
	t.Cleanup(func() { scanCmd.SetOut(nil) })

	err := runLocalScan(scanCmd, nil)
	return buf.String(), err
}

func TestLocalScan_TableWithBlockingFinding(t *testing.T) {
	resetScanFlags()
	fakeFindings = []finding.Finding{
		{Tool: "fake", Type: "reentrancy-eth", Severity: finding.High, Title: "Reentrancy in withdraw()", File: "Vault.sol", Line: 10},
		{Tool: "fake", Type: "pragma", Severity: finding.Low, Title: "Floating pragma", File: "Vault.sol", Line: 1},
	}
	fakeErr = nil
	scanPath = testRepo(t, "high")

	out, err := runScanCommand(t)

	assert.Contains(t, out, "SEVERITY")
	assert.Contains(t, out, "Vault.sol:10")
	assert.Contains(t, out, "Reentrancy in withdraw()")
	assert.Contains(t, out, "fake: ok")

	var ece *exitCodeError
	require.ErrorAs(t, err, &ece)
	assert.Equal(t, ExitBlocking, ece.ExitCode())
	assert.Contains(t, ece.Error(), "at or above High")
}

func TestLocalScan_CleanRun(t *testing.T) {
	resetScanFlags()
	fakeFindings = nil
	fakeErr = nil
	scanPath = testRepo(t, "high")

	out, err := runScanCommand(t)
	require.NoError(t, err)
	assert.Contains(t, out, "No issues found.")
}

func TestLocalScan_NonBlockingSeverityExitsZero(t *testing.T) {
	resetScanFlags()
	fakeFindings = []finding.Finding{
		{Tool: "fake", Type: "pragma", Severity: finding.Medium, Title: "Floating pragma", File: "Vault.sol", Line: 1},
	}
	fakeErr = nil
	scanPath = testRepo(t, "critical")

	out, err := runScanCommand(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Floating pragma")
}

func TestLocalScan_JSONOutput(t *testing.T) {
	resetScanFlags()
	fakeFindings = []finding.Finding{
		{Tool: "fake", Type: "SWC-101", Severity: finding.Medium, Title: "Integer overflow", File: "Vault.sol", Line: 24},
	}
	fakeErr = nil
	scanPath = testRepo(t, "critical")
	scanJSON = true

	out, err := runScanCommand(t)
	require.NoError(t, err)

	var report struct {
		Findings []struct {
			Tool        string `json:"tool"`
			Severity    string `json:"severity"`
			Fingerprint string `json:"fingerprint"`
		} `json:"findings"`
		Tools []struct {
			Tool string `json:"tool"`
			OK   bool   `json:"ok"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "Medium", report.Findings[0].Severity)
	assert.Equal(t, "fake|SWC-101|Vault.sol|24", report.Findings[0].Fingerprint)
	require.Len(t, report.Tools, 1)
	assert.True(t, report.Tools[0].OK)
}

func TestLocalScan_BaselineWriteThenFilter(t *testing.T) {
	resetScanFlags()
	fakeFindings = []finding.Finding{
		{Tool: "fake", Type: "reentrancy-eth", Severity: finding.High, Title: "Reentrancy", File: "Vault.sol", Line: 10},
	}
	fakeErr = nil
	dir := testRepo(t, "high")
	scanPath = dir
	scanBaseline = true

	out, err := runScanCommand(t)
	require.NoError(t, err, "baseline write must not gate on severity")
	assert.Contains(t, out, "Baseline written: 1 fingerprint(s)")
	assert.FileExists(t, filepath.Join(dir, ".audit-pit-crew-baseline.json"))

	// Second run reports nothing new and exits clean despite the High
	// finding still being present.
	resetScanFlags()
	scanPath = dir

	out, err = runScanCommand(t)
	require.NoError(t, err)
	assert.Contains(t, out, "No new issues beyond the recorded baseline.")
}

func TestLocalScan_BadPath(t *testing.T) {
	resetScanFlags()
	scanPath = filepath.Join(t.TempDir(), "missing")

	_, err := runScanCommand(t)
	var ece *exitCodeError
	require.ErrorAs(t, err, &ece)
	assert.Equal(t, ExitInvalidArgs, ece.ExitCode())
}

func TestLocalScan_BaseWithNoChanges(t *testing.T) {
	resetScanFlags()
	gitcli.SetExecutor(&testable.MockCommandExecutor{})
	t.Cleanup(func() { gitcli.SetExecutor(nil) })

	scanPath = testRepo(t, "high")
	scanBase = "main"

	out, err := runScanCommand(t)
	require.NoError(t, err)
	assert.Contains(t, out, "No Solidity changes to scan.")
}

func TestLocalScan_ToolFailureShownInSummary(t *testing.T) {
	resetScanFlags()
	fakeFindings = nil
	fakeErr = errors.New("binary not found")
	t.Cleanup(func() { fakeErr = nil })
	scanPath = testRepo(t, "high")

	out, err := runScanCommand(t)
	require.NoError(t, err, "tool failure is not a CLI failure")
	assert.Contains(t, out, "fake: failed")
}

func TestExitError_WithMessage(t *testing.T) {
	err := exitError(ExitBlocking, "found %d", 3)
	assert.Equal(t, "found 3", err.Error())
	assert.Equal(t, 3, err.ExitCode())
}

func TestExitError_EmptyMessageDefaults(t *testing.T) {
	assert.Contains(t, exitError(ExitBlocking, "").Error(), "blocking findings")
	assert.Contains(t, exitError(ExitInvalidArgs, "").Error(), "invalid arguments")
	assert.Contains(t, exitError(ExitError, "").Error(), "pitcrew: error")
}

func TestRootHasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "worker", "scan", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
