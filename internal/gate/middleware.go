package gate

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/openlearn/courseware/internal/session"
)

// Sessions provides the current session snapshot. *session.Store
// satisfies it.
type Sessions interface {
	Snapshot() session.Snapshot
}

// LoginPath is where RedirectLogin sends visitors. The original URL is
// carried in the return_to query parameter.
const LoginPath = "/login"

const waitingPage = `<!doctype html>
<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="1">
<title>Signing you in</title></head>
<body><p>Checking your session&hellip;</p></body></html>`

// Require wraps a handler so it is only reached when Decide allows it.
// Compatible with chi's middleware chain.
func Require(sess Sessions, requiredRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := sess.Snapshot()

			switch Decide(snap, requiredRoles) {
			case Allow:
				next.ServeHTTP(w, r)

			case Wait:
				log.Debug().Str("path", r.URL.Path).Str("state", snap.State.String()).Msg("session not settled, holding request")
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(waitingPage))

			case RedirectLogin:
				log.Debug().Str("path", r.URL.Path).Msg("not signed in, redirecting to login")
				target := LoginPath + "?return_to=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusFound)

			case RedirectLanding:
				landing := LandingPath(snap.User.Role)
				log.Debug().Str("path", r.URL.Path).Str("role", snap.User.Role).Str("landing", landing).Msg("role not permitted, redirecting to landing page")
				http.Redirect(w, r, landing, http.StatusFound)
			}
		})
	}
}
