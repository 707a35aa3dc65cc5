// Package session holds the authentication lifecycle of the current user:
// a state machine over the login/restore/refresh/logout transitions, an
// event bus notifying decoupled consumers, and the persistence of tokens
// across restarts.
package session

import (
	"context"

	"github.com/openlearn/courseware/internal/models"
)

// State represents the lifecycle state of the session.
type State int

const (
	// StateRestoring is the initial state, entered exactly once per
	// process while persisted credentials are being validated.
	StateRestoring State = iota
	// StateUnauthenticated means no session is established. Re-enterable.
	StateUnauthenticated
	// StateAuthenticating means a login call is in flight.
	StateAuthenticating
	// StateAuthenticated means the session is established and carries a
	// user profile and access token.
	StateAuthenticated
	// StateRefreshing means the access token is being rotated. The
	// session keeps its user and old access token until the outcome.
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the session at a point in time.
// It never exposes a half-applied transition.
type Snapshot struct {
	State       State
	User        *models.User
	AccessToken string
	LastError   error
}

// Authenticated reports whether the snapshot carries an established session.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated
}

// LoginResult is what the authentication endpoint returns on success.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         models.User
}

// Endpoint is the remote authentication service consumed by the Store.
// Implementations classify failures using the sentinel errors of this
// package (ErrInvalidCredentials, ErrRefreshExpired, ErrAuthExpired) or
// a NetworkError.
type Endpoint interface {
	Login(ctx context.Context, identifier, secret string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Profile(ctx context.Context, accessToken string) (*models.User, error)
	// Logout is best-effort; the local session is cleared regardless of
	// its outcome.
	Logout(ctx context.Context, refreshToken string) error
}
