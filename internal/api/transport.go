package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/openlearn/courseware/internal/session"
)

// Session is the slice of the session store the transport layer needs.
type Session interface {
	Snapshot() session.Snapshot
	Refresh(ctx context.Context) error
	Invalidate(reason error)
}

var _ http.RoundTripper = (*AuthTransport)(nil)

// AuthTransport attaches the current access token to outgoing requests.
//
// It is a pure function of the session snapshot at call time: it never
// blocks waiting for restoration. Callers needing an authenticated call
// while the session is still restoring must await restoration first.
type AuthTransport struct {
	base http.RoundTripper
	sess Session
}

func NewAuthTransport(base http.RoundTripper, sess Session) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &AuthTransport{base: base, sess: sess}
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	snap := t.sess.Snapshot()
	if snap.State == session.StateAuthenticated || snap.State == session.StateRefreshing {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+snap.AccessToken)
	}
	return t.base.RoundTrip(req)
}

var _ http.RoundTripper = (*RefreshTransport)(nil)

// RefreshTransport turns auth-expired responses into a shared token
// refresh followed by a single retry.
//
// The single-flight guarantee lives in the session store: when several
// requests fail at once, every RoundTrip calls Refresh and all of them
// join the same in-flight rotation. On refresh failure the store has
// already cleared the session and published one AUTH_ERROR; the failing
// request reports its original auth failure. A retried request that is
// rejected again is escalated and never retried a second time.
type RefreshTransport struct {
	next http.RoundTripper
	sess Session
}

// NewRefreshTransport wraps next, which is expected to contain an
// AuthTransport so that retried requests pick up the rotated token.
func NewRefreshTransport(next http.RoundTripper, sess Session) *RefreshTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &RefreshTransport{next: next, sess: sess}
}

func (t *RefreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || !authExpiredResponse(resp) {
		return resp, err
	}

	// Auth failure: decode it, then try to recover with a refresh.
	reason := errorFromResponse(req.URL.Path, resp)

	if !replayable(req) {
		log.Debug().Str("url", req.URL.String()).Msg("auth-expired response on non-replayable request, not retrying")
		return nil, reason
	}

	if refreshErr := t.sess.Refresh(req.Context()); refreshErr != nil {
		// The session settled Unauthenticated and one AUTH_ERROR went
		// out for all waiters; the caller sees its original failure.
		return nil, reason
	}

	retry, cloneErr := cloneRequest(req)
	if cloneErr != nil {
		return nil, reason
	}

	log.Debug().Str("url", req.URL.String()).Msg("retrying request with refreshed token")

	resp, err = t.next.RoundTrip(retry)
	if err != nil {
		return nil, err
	}
	if authExpiredResponse(resp) {
		// A fresh token was rejected; something is fundamentally wrong
		// with the session. Escalate instead of looping.
		escalation := errorFromResponse(retry.URL.Path, resp)
		t.sess.Invalidate(escalation)
		return nil, escalation
	}
	return resp, nil
}

// authExpiredResponse reports whether the response signals an expired or
// invalid access token. Login and refresh calls bypass this transport,
// so any 401 seen here is an access-token failure.
func authExpiredResponse(resp *http.Response) bool {
	return resp.StatusCode == http.StatusUnauthorized
}

// replayable reports whether the request body can be sent again.
func replayable(req *http.Request) bool {
	return req.Body == nil || req.GetBody != nil
}

func cloneRequest(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return retry, nil
}
