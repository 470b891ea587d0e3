package main

import "fmt"

// Exit codes for the pitcrew CLI.
const (
	ExitOK          = 0 // Clean run.
	ExitError       = 1 // Runtime failure.
	ExitInvalidArgs = 2 // Invalid arguments or bad path.
	ExitBlocking    = 3 // Local scan found findings at or above block_on_severity.
)

// exitCodeError carries a non-zero exit code through cobra's error handling.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError. If msg is empty, the error message is
// set to a generic description of the exit code.
func exitError(code int, format string, args ...any) *exitCodeError {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		switch code {
		case ExitBlocking:
			msg = "pitcrew: blocking findings present"
		case ExitInvalidArgs:
			msg = "pitcrew: invalid arguments"
		default:
			msg = "pitcrew: error"
		}
	}
	return &exitCodeError{code: code, msg: msg}
}
