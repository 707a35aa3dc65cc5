package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlearn/courseware/internal/models"
	"github.com/openlearn/courseware/internal/session"
)

// fakeSession is a scriptable Session for transport tests.
type fakeSession struct {
	mu           sync.Mutex
	snap         session.Snapshot
	newToken     string
	refreshErr   error
	refreshCalls int
	invalidated  []error
}

func (f *fakeSession) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSession) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		f.snap = session.Snapshot{State: session.StateUnauthenticated, LastError: f.refreshErr}
		return f.refreshErr
	}
	f.snap.AccessToken = f.newToken
	return nil
}

func (f *fakeSession) Invalidate(reason error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, reason)
	f.snap = session.Snapshot{State: session.StateUnauthenticated, LastError: reason}
}

func authenticatedSession(token string) *fakeSession {
	user := models.User{ID: "u-1", Username: "alice", Role: models.RoleStudent}
	return &fakeSession{
		snap: session.Snapshot{
			State:       session.StateAuthenticated,
			User:        &user,
			AccessToken: token,
		},
	}
}

func TestAuthTransport(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	t.Run("attaches bearer when authenticated", func(t *testing.T) {
		sess := authenticatedSession("access-1")
		client := &http.Client{Transport: NewAuthTransport(nil, sess)}

		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "Bearer access-1", gotAuth)
	})

	t.Run("attaches bearer while refreshing", func(t *testing.T) {
		sess := authenticatedSession("access-1")
		sess.snap.State = session.StateRefreshing
		client := &http.Client{Transport: NewAuthTransport(nil, sess)}

		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "Bearer access-1", gotAuth)
	})

	t.Run("leaves request bare otherwise", func(t *testing.T) {
		for _, state := range []session.State{session.StateRestoring, session.StateUnauthenticated, session.StateAuthenticating} {
			sess := &fakeSession{snap: session.Snapshot{State: state}}
			client := &http.Client{Transport: NewAuthTransport(nil, sess)}

			resp, err := client.Get(server.URL)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Empty(t, gotAuth, "no token in state %s", state)
		}
	})
}

// authServer returns 401 auth_expired unless the request carries the
// given token.
func authServer(accept string, hits *int32) *httptest.Server {
	var mu sync.Mutex
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		*hits++
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+accept {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"auth_expired","message":"token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
}

func TestRefreshTransport_RefreshAndRetry(t *testing.T) {
	var hits int32
	server := authServer("access-2", &hits)
	defer server.Close()

	sess := authenticatedSession("access-1")
	sess.newToken = "access-2"

	chain := NewRefreshTransport(NewAuthTransport(nil, sess), sess)
	client := &http.Client{Transport: chain}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), hits, "original request plus one retry")
	assert.Equal(t, 1, sess.refreshCalls)
	assert.Empty(t, sess.invalidated)
}

func TestRefreshTransport_RetryRejectedEscalates(t *testing.T) {
	var hits int32
	server := authServer("never-valid", &hits)
	defer server.Close()

	sess := authenticatedSession("access-1")
	sess.newToken = "access-2"

	chain := NewRefreshTransport(NewAuthTransport(nil, sess), sess)
	client := &http.Client{Transport: chain}

	resp, err := client.Get(server.URL) //nolint:bodyclose // no response on error
	require.Error(t, err)
	require.Nil(t, resp)
	assert.ErrorIs(t, err, session.ErrAuthExpired)

	assert.Equal(t, int32(2), hits, "retried exactly once, never twice")
	assert.Equal(t, 1, sess.refreshCalls)
	require.Len(t, sess.invalidated, 1, "a rejected retry invalidates the session")
	assert.ErrorIs(t, sess.invalidated[0], session.ErrAuthExpired)
}

func TestRefreshTransport_RefreshFailurePropagatesOriginal(t *testing.T) {
	var hits int32
	server := authServer("access-2", &hits)
	defer server.Close()

	sess := authenticatedSession("access-1")
	sess.refreshErr = session.ErrRefreshExpired

	chain := NewRefreshTransport(NewAuthTransport(nil, sess), sess)
	client := &http.Client{Transport: chain}

	_, err := client.Get(server.URL) //nolint:bodyclose // no response on error
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrAuthExpired, "caller sees its original failure, not the refresh outcome")

	assert.Equal(t, int32(1), hits, "no retry after a failed refresh")
	assert.Empty(t, sess.invalidated, "the store already handled the fatal transition")
}

func TestRefreshTransport_PassesThroughOtherFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	sess := authenticatedSession("access-1")
	chain := NewRefreshTransport(NewAuthTransport(nil, sess), sess)
	client := &http.Client{Transport: chain}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, sess.refreshCalls)
}

func TestRefreshTransport_NonReplayableBodyNotRetried(t *testing.T) {
	var hits int32
	server := authServer("access-2", &hits)
	defer server.Close()

	sess := authenticatedSession("access-1")
	sess.newToken = "access-2"

	chain := NewRefreshTransport(NewAuthTransport(nil, sess), sess)

	// A plain reader gives the request no GetBody, so it cannot be replayed
	req, err := http.NewRequest(http.MethodPost, server.URL, io.NopCloser(bytes.NewReader([]byte("payload"))))
	require.NoError(t, err)
	require.Nil(t, req.GetBody)

	resp, rtErr := chain.RoundTrip(req)
	require.Error(t, rtErr)
	require.Nil(t, resp)
	assert.ErrorIs(t, rtErr, session.ErrAuthExpired)
	assert.Equal(t, int32(1), hits)
	assert.Zero(t, sess.refreshCalls)
}
