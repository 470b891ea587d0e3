package testable

import (
	"context"
	"encoding/base64"
	"os/exec"
	"strings"
)

// MockCommandExecutor is a test double for CommandExecutor. It simulates the
// binaries pitcrew shells out to, git and the analyzers, without running
// them: missing binaries, command failures, and canned stdout.
//
// Commands are keyed by the executable name and all arguments joined with
// spaces, e.g. "git diff --name-only main...HEAD". The zero value treats
// every binary as installed and every command as succeeding with empty
// output.
type MockCommandExecutor struct {
	// LookPathErr, when non-nil, is returned by LookPath for any file.
	LookPathErr error

	// LookPathResult is returned as the path when LookPathErr is nil.
	LookPathResult string

	// CommandOutputs maps a command key to the stdout that the resulting
	// exec.Cmd should produce.
	CommandOutputs map[string]string

	// CommandErrors maps a command key to an error message. When set, the
	// resulting exec.Cmd will fail with that message written to stderr.
	CommandErrors map[string]string

	// DefaultOutput is returned when no key matches in CommandOutputs.
	DefaultOutput string

	// DefaultError, when non-empty, makes every unmatched command fail.
	DefaultError string

	// Calls records the command keys that were invoked, for assertion purposes.
	Calls []string
}

// LookPath returns the configured result or error.
func (m *MockCommandExecutor) LookPath(_ string) (string, error) {
	if m.LookPathErr != nil {
		return "", m.LookPathErr
	}
	if m.LookPathResult != "" {
		return m.LookPathResult, nil
	}
	return "/usr/bin/git", nil
}

// CommandContext returns an *exec.Cmd that, when executed, produces the
// configured output or failure for the command key. The stand-in runs
// through sh so no real binary is needed.
func (m *MockCommandExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	key := name + " " + strings.Join(args, " ")
	m.Calls = append(m.Calls, key)

	if msg, ok := m.CommandErrors[key]; ok {
		return failingCmd(ctx, msg)
	}
	if out, ok := m.CommandOutputs[key]; ok {
		return succeedingCmd(ctx, out)
	}
	if m.DefaultError != "" {
		return failingCmd(ctx, m.DefaultError)
	}
	return succeedingCmd(ctx, m.DefaultOutput)
}

// succeedingCmd exits zero after writing out to stdout. The payload rides
// through base64 so newlines and shell metacharacters in canned scanner
// reports and diff listings survive the sh round trip intact.
func succeedingCmd(ctx context.Context, out string) *exec.Cmd {
	enc := base64.StdEncoding.EncodeToString([]byte(out))
	return exec.CommandContext(ctx, "sh", "-c", "printf '%s' "+enc+" | base64 -d") //nolint:gosec // test helper
}

// failingCmd exits non-zero after writing msg and a trailing newline to
// stderr, the way a real tool reports a fatal error.
func failingCmd(ctx context.Context, msg string) *exec.Cmd {
	enc := base64.StdEncoding.EncodeToString([]byte(msg))
	return exec.CommandContext(ctx, "sh", "-c", "printf '%s' "+enc+" | base64 -d >&2; echo >&2; exit 1") //nolint:gosec // test helper
}
