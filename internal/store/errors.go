package store

// StoreError wraps a failed Redis operation. PR scans degrade it to an
// empty baseline with a warning; baseline writes treat it as fatal, since
// a baseline job that stored nothing accomplished nothing.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }
