package scanner

import "fmt"

// FatalError wraps a panic recovered from the scanning framework. It marks
// a defect in the scanner or an adapter rather than a tool failure, so jobs
// fail immediately instead of retrying.
type FatalError struct {
	Panic any
}

func (e *FatalError) Error() string { return fmt.Sprintf("scanner panic: %v", e.Panic) }
