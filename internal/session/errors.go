package session

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrInvalidCredentials is returned by Login when the identifier or
	// secret is rejected. Recoverable by re-entering credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRefreshExpired is returned when the refresh token is no longer
	// accepted. Session-fatal; forces a new login.
	ErrRefreshExpired = errors.New("refresh token expired")

	// ErrAuthExpired signals that a request was rejected because the
	// access token is invalid or expired. Handled by the refresh
	// coordinator and invisible to the caller when refresh succeeds.
	ErrAuthExpired = errors.New("access token expired")

	// ErrNotAuthenticated is returned when an operation requires an
	// established session and there is none.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRestorePending is returned when an operation is attempted
	// before Restore has settled.
	ErrRestorePending = errors.New("session restoration in progress")

	// ErrAlreadyAuthenticated is returned by Login when a session is
	// already established.
	ErrAlreadyAuthenticated = errors.New("already authenticated")
)

// NetworkError wraps a transport-level failure (connection refused, DNS,
// timeout, 5xx). It is retryable by the user but never retried by the
// session layer itself.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
