// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package adapters

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/manifest"
	"github.com/davetashner/pitcrew/internal/testable"
)

func TestAderyn_ParsesStdout(t *testing.T) {
	root := t.TempDir()
	report := fmt.Sprintf(`{
  "issues": [
    {
      "title": "Centralization Risk for trusted owners",
      "severity": "high",
      "description": "Contracts have owners with privileged rights.",
      "file": "%s/src/Vault.sol",
      "line": 12
    },
    {
      "name": "Unused state variable",
      "severity": "info",
      "file": "src/Vault.sol",
      "line": 88
    }
  ]
}`, root)
	mock := &testable.MockCommandExecutor{DefaultOutput: report}
	useMockExec(t, mock)

	got, _, err := (&Aderyn{}).Run(context.Background(), root, nil, manifest.Default())
	require.NoError(t, err)
	require.Len(t, mock.Calls, 1)
	assert.Equal(t, "aderyn "+root+" -o json", mock.Calls[0])
	require.Len(t, got, 2)

	high := got[0]
	assert.Equal(t, "aderyn", high.Tool)
	assert.Equal(t, "Centralization Risk for trusted owners", high.Type)
	assert.Equal(t, finding.High, high.Severity)
	assert.Equal(t, "Unknown", high.Confidence)
	assert.Equal(t, "src/Vault.sol", high.File, "absolute paths come back relative to the scan root")
	assert.Equal(t, 12, high.Line)

	info := got[1]
	assert.Equal(t, "Unused state variable", info.Title, "name is the fallback title")
	assert.Equal(t, finding.Low, info.Severity)
	assert.Equal(t, "src/Vault.sol", info.File)
}

func TestAderyn_FallsBackToReportFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "aderyn_report.json", `{
  "issues": [
    {"title": "Solmate safeTransfer", "severity": "low", "file": "src/T.sol", "line": 3}
  ]
}`)
	useMockExec(t, &testable.MockCommandExecutor{DefaultOutput: "Report written to aderyn_report.json"})

	got, _, err := (&Aderyn{}).Run(context.Background(), root, nil, manifest.Default())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Solmate safeTransfer", got[0].Title)
	assert.Equal(t, finding.Low, got[0].Severity)
}

func TestAderyn_MissingBinaryDegrades(t *testing.T) {
	root := t.TempDir()
	useMockExec(t, &testable.MockCommandExecutor{LookPathErr: errors.New("executable file not found in $PATH")})

	got, _, err := (&Aderyn{}).Run(context.Background(), root, nil, manifest.Default())
	assert.NoError(t, err, "a missing optional tool must not fail the scan")
	assert.Empty(t, got)
}

func TestAderyn_NonZeroExitWithoutReportDegrades(t *testing.T) {
	root := t.TempDir()
	useMockExec(t, &testable.MockCommandExecutor{DefaultError: "panicked at 'unsupported pragma'"})

	got, _, err := (&Aderyn{}).Run(context.Background(), root, nil, manifest.Default())
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestAderyn_IgnoresFileList(t *testing.T) {
	root := t.TempDir()
	mock := &testable.MockCommandExecutor{DefaultOutput: `{"issues": []}`}
	useMockExec(t, mock)

	_, _, err := (&Aderyn{}).Run(context.Background(), root, []string{"a.sol", "b.sol"}, manifest.Default())
	require.NoError(t, err)
	require.Len(t, mock.Calls, 1, "aderyn has no per-file mode")
	assert.Equal(t, "aderyn "+root+" -o json", mock.Calls[0])
}

func TestAderyn_CancelledContext(t *testing.T) {
	root := t.TempDir()
	useMockExec(t, &testable.MockCommandExecutor{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := (&Aderyn{}).Run(ctx, root, nil, manifest.Default())
	assert.True(t, errors.Is(err, context.Canceled), "cancellation must not be swallowed by degradation")
}
