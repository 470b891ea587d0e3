package adapter

import "fmt"

// ToolExecutionError reports that an external tool did not produce a usable
// result: the binary was missing, exited non-zero without a report, timed
// out, or emitted output the adapter could not parse. The scanner treats it
// as a per-tool failure and continues with the remaining adapters.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// Failf builds a *ToolExecutionError from a format string.
func Failf(tool, format string, args ...any) *ToolExecutionError {
	return &ToolExecutionError{Tool: tool, Err: fmt.Errorf(format, args...)}
}
