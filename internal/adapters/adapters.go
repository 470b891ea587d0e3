// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package adapters provides the tool adapters wrapping external Solidity
// security scanners. Each adapter normalizes one tool's command line and
// output format into the shared finding model.
package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/testable"
)

// Exec is the command executor used by this package.
// Override in tests with a testable.MockCommandExecutor.
var Exec testable.CommandExecutor = testable.DefaultExecutor()

// FS is the file system implementation used by this package.
// Override in tests with a testable.MockFileSystem.
var FS testable.FileSystem = testable.DefaultFS

// toolTimeout bounds a single tool invocation. Aderyn gets a longer budget
// because it always walks the whole tree.
const toolTimeout = 300 * time.Second

// toolOutput captures one finished tool invocation.
type toolOutput struct {
	stdout   string
	stderr   string
	exitCode int
}

// combined returns stdout and stderr joined for diagnostics.
func (o toolOutput) combined() string {
	return strings.TrimSpace(strings.TrimSpace(o.stdout) + "\n" + strings.TrimSpace(o.stderr))
}

// runTool executes name with args in dir under the given timeout. A non-zero
// exit is not an error here: the output is returned with the exit code and
// the caller decides what it means. The returned error is reserved for
// "could not run": missing binary, timeout, or context cancellation.
func runTool(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (toolOutput, error) {
	if _, err := Exec.LookPath(name); err != nil {
		return toolOutput{}, fmt.Errorf("%s not found in PATH: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := Exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out := toolOutput{stdout: stdout.String(), stderr: stderr.String()}

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return out, fmt.Errorf("%s timed out after %s", name, timeout)
			}
			return out, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			out.exitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, fmt.Errorf("running %s: %w", name, runErr)
	}

	return out, nil
}

// severityFrom maps a tool label through the adapter's severity map, falling
// back to lenient parsing for labels the map does not cover.
func severityFrom(m map[string]finding.Severity, label string) finding.Severity {
	if s, ok := m[strings.ToLower(strings.TrimSpace(label))]; ok {
		return s
	}
	return finding.ParseSeverity(label)
}

// capitalize normalizes a tool label to "Xxxx" form, matching how report
// output renders severities and confidences.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// firstLine extracts a one-line title from a multi-line description.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
