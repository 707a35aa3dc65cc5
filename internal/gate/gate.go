// Package gate decides whether the current session may see a protected
// route. The decision core is pure; the HTTP middleware in this package
// adapts it for the web shell.
package gate

import (
	"github.com/openlearn/courseware/internal/models"
	"github.com/openlearn/courseware/internal/session"
)

// Decision is the outcome of evaluating a session against a route's
// role requirements.
type Decision int

const (
	// Allow renders the protected content.
	Allow Decision = iota

	// Wait holds the request without rendering protected content or
	// redirecting; the session has not settled yet.
	Wait

	// RedirectLogin sends the visitor to the login page.
	RedirectLogin

	// RedirectLanding sends an authenticated user without the required
	// role to their own landing page.
	RedirectLanding
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Wait:
		return "wait"
	case RedirectLogin:
		return "redirect-login"
	case RedirectLanding:
		return "redirect-landing"
	}
	return "unknown"
}

// landingPaths maps each role to the page it belongs on.
var landingPaths = map[string]string{
	models.RoleStudent:    "/courses",
	models.RoleInstructor: "/instructor",
	models.RoleAdmin:      "/admin",
}

// LandingPath returns the landing page for a role. Unknown roles land
// on the catalog, which every authenticated user may see.
func LandingPath(role string) string {
	if path, ok := landingPaths[role]; ok {
		return path
	}
	return "/courses"
}

// Decide evaluates a session snapshot against the roles a route
// requires. An empty requiredRoles means any authenticated user.
//
// While the session is restoring, authenticating or refreshing the
// outcome is still unknown, so the gate holds rather than redirecting
// a user who may be about to come back authenticated.
func Decide(snap session.Snapshot, requiredRoles []string) Decision {
	switch snap.State {
	case session.StateRestoring, session.StateAuthenticating, session.StateRefreshing:
		return Wait
	case session.StateUnauthenticated:
		return RedirectLogin
	case session.StateAuthenticated:
		if snap.User == nil {
			// Should not happen; treat as not signed in
			return RedirectLogin
		}
		if len(requiredRoles) == 0 {
			return Allow
		}
		for _, role := range requiredRoles {
			if snap.User.Role == role {
				return Allow
			}
		}
		return RedirectLanding
	}
	return RedirectLogin
}
