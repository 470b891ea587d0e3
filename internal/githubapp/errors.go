package githubapp

// AuthError reports a failed App authentication step. Auth failures are
// configuration problems, never retried.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string { return "github app auth: " + e.Op + ": " + e.Err.Error() }
func (e *AuthError) Unwrap() error { return e.Err }
