// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/pitcrew/internal/adapter"
	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/manifest"
	"github.com/davetashner/pitcrew/internal/testable"
)

const oyenteIssuesJSON = `{
  "issues": [
    {
      "name": "Integer Overflow",
      "severity": "warning",
      "description": "Arithmetic operation can overflow.",
      "line": 15
    }
  ]
}`

func TestOyente_ScansEachFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.sol", "contract A {}")
	writeFile(t, root, "b.sol", "contract B {}")
	mock := &testable.MockCommandExecutor{
		CommandOutputs: map[string]string{
			"oyente -s a.sol -j": oyenteIssuesJSON,
			"oyente -s b.sol -j": "",
		},
	}
	useMockExec(t, mock)

	got, _, err := (&Oyente{}).Run(context.Background(), root, []string{"a.sol", "b.sol"}, manifest.Default())
	require.NoError(t, err)
	require.Len(t, mock.Calls, 2)
	require.Len(t, got, 1)

	f := got[0]
	assert.Equal(t, "oyente", f.Tool)
	assert.Equal(t, "Integer Overflow", f.Type)
	assert.Equal(t, finding.Medium, f.Severity, "oyente warnings map to Medium")
	assert.Equal(t, "Unknown", f.Confidence)
	assert.Equal(t, "a.sol", f.File)
	assert.Equal(t, 15, f.Line)
}

func TestOyente_SkipsMissingFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.sol", "contract A {}")
	mock := &testable.MockCommandExecutor{
		CommandOutputs: map[string]string{"oyente -s a.sol -j": ""},
	}
	useMockExec(t, mock)

	_, _, err := (&Oyente{}).Run(context.Background(), root, []string{"a.sol", "gone.sol"}, manifest.Default())
	require.NoError(t, err)
	assert.Len(t, mock.Calls, 1, "only the existing file should be scanned")
}

func TestOyente_NonZeroExitWithoutOutputIsClean(t *testing.T) {
	// Oyente regularly exits non-zero on contracts it cannot compile.
	// Without output there is nothing to report, which is not a failure.
	root := t.TempDir()
	writeFile(t, root, "a.sol", "contract A {}")
	useMockExec(t, &testable.MockCommandExecutor{DefaultError: "z3 crashed"})

	got, _, err := (&Oyente{}).Run(context.Background(), root, []string{"a.sol"}, manifest.Default())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOyente_BinaryMissingFailsAllFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.sol", "contract A {}")
	writeFile(t, root, "b.sol", "contract B {}")
	useMockExec(t, &testable.MockCommandExecutor{LookPathErr: errors.New("executable file not found in $PATH")})

	_, _, err := (&Oyente{}).Run(context.Background(), root, []string{"a.sol", "b.sol"}, manifest.Default())

	var toolErr *adapter.ToolExecutionError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "oyente", toolErr.Tool)
}

func TestOyente_WholeTreeWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "contracts/a.sol", "contract A {}")
	writeFile(t, root, "node_modules/dep/evil.sol", "contract Evil {}")
	writeFile(t, root, ".hidden/x.sol", "contract X {}")
	writeFile(t, root, "README.md", "docs")
	mock := &testable.MockCommandExecutor{
		CommandOutputs: map[string]string{"oyente -s contracts/a.sol -j": oyenteIssuesJSON},
	}
	useMockExec(t, mock)

	got, _, err := (&Oyente{}).Run(context.Background(), root, nil, manifest.Default())
	require.NoError(t, err)
	require.Len(t, mock.Calls, 1, "hidden dirs and node_modules must be skipped")
	assert.Equal(t, "oyente -s contracts/a.sol -j", mock.Calls[0])
	assert.Len(t, got, 1)
}

func TestOyente_NoSolidityFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "docs")
	mock := &testable.MockCommandExecutor{}
	useMockExec(t, mock)

	got, _, err := (&Oyente{}).Run(context.Background(), root, nil, manifest.Default())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, mock.Calls)
}

func TestOyente_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.sol", "contract A {}")
	useMockExec(t, &testable.MockCommandExecutor{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := (&Oyente{}).Run(ctx, root, []string{"a.sol"}, manifest.Default())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestOyente_SeverityMapping(t *testing.T) {
	m := (&Oyente{}).DefaultSeverityMap()
	assert.Equal(t, finding.Critical, m["critical"])
	assert.Equal(t, finding.Medium, m["warning"])
	assert.Equal(t, finding.Low, m["note"])
}
