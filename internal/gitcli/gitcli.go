// Package gitcli executes git commands for job workspaces: clone, fetch,
// checkout, and diff. Every call carries its own timeout, and command
// lines and stderr pass through redaction before they can reach an error
// message, since clone URLs may embed installation tokens.
package gitcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davetashner/pitcrew/internal/redact"
	"github.com/davetashner/pitcrew/internal/testable"
)

// executor runs git commands. Replace with SetExecutor in tests.
var executor testable.CommandExecutor = testable.DefaultExecutor()

// SetExecutor replaces the command executor, for tests. Passing nil
// restores the default.
func SetExecutor(e testable.CommandExecutor) {
	if e == nil {
		executor = testable.DefaultExecutor()
		return
	}
	executor = e
}

// Available reports whether git can be found on PATH.
func Available() error {
	if _, err := executor.LookPath("git"); err != nil {
		return fmt.Errorf("git not found on PATH: %w", err)
	}
	return nil
}

// Run executes git with args in dir under the given timeout and returns
// stdout. Context cancellation is returned as-is so callers can tell an
// operator abort from a git failure.
func Run(ctx context.Context, dir string, timeout time.Duration, args ...string) (string, error) {
	if err := Available(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := executor.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cmdline := redact.String(strings.Join(args, " "))
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return "", fmt.Errorf("git %s: timed out after %s", cmdline, timeout)
			}
			return "", ctxErr
		}
		return "", fmt.Errorf("git %s: %w: %s",
			cmdline, err, redact.String(strings.TrimSpace(stderr.String())))
	}
	return stdout.String(), nil
}
