package report

// ReporterError wraps a failed GitHub reporting call. Reporting is
// best-effort; callers log it and move on.
type ReporterError struct {
	Op  string
	Err error
}

func (e *ReporterError) Error() string { return "reporter: " + e.Op + ": " + e.Err.Error() }
func (e *ReporterError) Unwrap() error { return e.Err }
