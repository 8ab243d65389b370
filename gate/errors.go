package gate

import "errors"

// Sentinel errors returned by HybridGate.Authorize.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// ResolveError reports a failure to load the subject's profile.
type ResolveError struct {
	Err error
}

func (e *ResolveError) Error() string { return "resolve profile: " + e.Err.Error() }
func (e *ResolveError) Unwrap() error { return e.Err }
