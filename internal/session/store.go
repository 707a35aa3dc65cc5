package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/openlearn/courseware/internal/credentials"
	"github.com/openlearn/courseware/internal/models"
)

// Store is the single writer of session state. It owns the state machine,
// persists credentials through a credentials.Store, and publishes exactly
// one event per transition on its Bus.
//
// Operations are serialized: at most one transition sequence runs at a
// time. Snapshot reads never block behind an in-flight operation's
// network calls.
type Store struct {
	endpoint Endpoint
	creds    credentials.Store
	bus      *Bus
	clock    clockwork.Clock

	// op serializes operations (login, logout, restore, refresh).
	// Network calls happen while op is held, but never while mu is held.
	op sync.Mutex

	// mu guards the snapshot fields below.
	mu           sync.RWMutex
	state        State
	user         *models.User
	accessToken  string
	refreshToken string
	lastError    error

	restored bool

	// refreshGroup collapses concurrent Refresh calls into a single
	// in-flight attempt whose outcome all callers share.
	refreshGroup singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock. Used by tests to control token
// expiry decisions.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// NewStore creates a session store in the Restoring state. Callers must
// invoke Restore once before relying on the session; see Restore.
func NewStore(endpoint Endpoint, creds credentials.Store, bus *Bus, opts ...Option) *Store {
	s := &Store{
		endpoint: endpoint,
		creds:    creds,
		bus:      bus,
		clock:    clockwork.NewRealClock(),
		state:    StateRestoring,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bus returns the event bus session consumers subscribe to.
func (s *Store) Bus() *Bus {
	return s.bus
}

// Snapshot returns a read-only copy of the current session.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		State:       s.state,
		AccessToken: s.accessToken,
		LastError:   s.lastError,
	}
	if s.user != nil {
		user := *s.user
		snap.User = &user
	}
	return snap
}

// Role returns the authenticated user's role, or models.RoleGuest when no
// session is established.
func (s *Store) Role() string {
	snap := s.Snapshot()
	if snap.State == StateAuthenticated && snap.User != nil {
		return snap.User.Role
	}
	return models.RoleGuest
}

// Restore reconstructs the session from persisted credentials. It runs at
// most once per Store; later calls are no-ops. It always settles the
// session to Authenticated or Unauthenticated before returning.
func (s *Store) Restore(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	if s.restored {
		return nil
	}
	s.restored = true

	access, haveAccess := s.creds.Get(credentials.KeyAccessToken)
	refresh, haveRefresh := s.creds.Get(credentials.KeyRefreshToken)

	if !haveAccess && !haveRefresh {
		log.Debug().Msg("no persisted credentials, settling unauthenticated")
		s.commit(StateUnauthenticated, nil, "", "", nil)
		s.publish(EventSessionRestored, nil, nil)
		return nil
	}

	cached := s.cachedProfile()

	// Rotate the access token up front when it is absent or visibly
	// expired, rather than burning a profile call on a dead token.
	refreshed := false
	if !haveAccess || tokenExpired(access, s.clock.Now()) {
		if !haveRefresh {
			err := ErrAuthExpired
			log.Debug().Msg("stored access token expired and no refresh token present")
			return s.restoreFailed(err)
		}
		newAccess, err := s.endpoint.Refresh(ctx, refresh)
		if err != nil {
			return s.restoreFailed(err)
		}
		access = newAccess
		refreshed = true
		s.creds.Set(credentials.KeyAccessToken, access)
	}

	user, err := s.endpoint.Profile(ctx, access)
	if err == nil {
		s.persistProfile(user)
		s.commit(StateAuthenticated, user, access, refresh, nil)
		s.publish(EventSessionRestored, user, nil)
		log.Info().Str("username", user.Username).Msg("session restored")
		return nil
	}

	if ctx.Err() == nil && !refreshed && haveRefresh && isAuthExpired(err) {
		// Token rejected despite looking fresh; rotate once and retry.
		newAccess, refreshErr := s.endpoint.Refresh(ctx, refresh)
		if refreshErr != nil {
			return s.restoreFailed(refreshErr)
		}
		access = newAccess
		refreshed = true
		s.creds.Set(credentials.KeyAccessToken, access)

		user, err = s.endpoint.Profile(ctx, access)
		if err == nil {
			s.persistProfile(user)
			s.commit(StateAuthenticated, user, access, refresh, nil)
			s.publish(EventSessionRestored, user, nil)
			log.Info().Str("username", user.Username).Msg("session restored")
			return nil
		}
	}

	if IsNetwork(err) && cached != nil {
		// The token was just validated by the refresh endpoint (or looks
		// fresh) and only the profile fetch failed. Restore from the
		// cached profile; the next API call will surface any staleness.
		s.commit(StateAuthenticated, cached, access, refresh, nil)
		s.publish(EventSessionRestored, cached, nil)
		log.Warn().Err(err).Str("username", cached.Username).Msg("profile fetch failed, restored from cached profile")
		return nil
	}

	return s.restoreFailed(err)
}

// restoreFailed settles a failed restoration: persisted credentials are
// cleared so a reload never resurrects a dead session.
func (s *Store) restoreFailed(err error) error {
	log.Warn().Err(err).Msg("session restore failed")
	s.creds.ClearAll()
	s.commit(StateUnauthenticated, nil, "", "", err)
	s.publish(EventAuthError, nil, err)
	return err
}

// Login establishes a new session. Allowed only once the session has
// settled to Unauthenticated.
func (s *Store) Login(ctx context.Context, identifier, secret string) error {
	s.op.Lock()
	defer s.op.Unlock()

	switch s.currentState() {
	case StateRestoring:
		return ErrRestorePending
	case StateAuthenticated, StateRefreshing:
		return ErrAlreadyAuthenticated
	}

	s.commit(StateAuthenticating, nil, "", "", nil)

	result, err := s.endpoint.Login(ctx, identifier, secret)
	if err != nil {
		log.Debug().Err(err).Str("identifier", identifier).Msg("login failed")
		s.commit(StateUnauthenticated, nil, "", "", err)
		s.publish(EventAuthError, nil, err)
		return err
	}

	user := result.User
	s.creds.Set(credentials.KeyAccessToken, result.AccessToken)
	s.creds.Set(credentials.KeyRefreshToken, result.RefreshToken)
	s.persistProfile(&user)

	s.commit(StateAuthenticated, &user, result.AccessToken, result.RefreshToken, nil)
	s.publish(EventLogin, &user, nil)

	log.Info().Str("username", user.Username).Str("role", user.Role).Msg("logged in")
	return nil
}

// Logout tears down the session. Idempotent: from Unauthenticated it
// still clears persistence and publishes LOGOUT. The remote logout call
// is best-effort.
func (s *Store) Logout(ctx context.Context) {
	s.op.Lock()
	defer s.op.Unlock()

	// A logout also ends a pending restoration; a later Restore must not
	// resurrect the session being discarded.
	s.restored = true

	if refresh := s.currentRefreshToken(); refresh != "" {
		if err := s.endpoint.Logout(ctx, refresh); err != nil {
			log.Debug().Err(err).Msg("remote logout failed, clearing local session anyway")
		}
	}

	s.creds.ClearAll()
	s.commit(StateUnauthenticated, nil, "", "", nil)
	s.publish(EventLogout, nil, nil)

	log.Info().Msg("logged out")
}

// Refresh rotates the access token. Concurrent callers share a single
// in-flight attempt and observe the same outcome. On failure the session
// is cleared and a single AUTH_ERROR is published.
func (s *Store) Refresh(ctx context.Context) error {
	_, err, shared := s.refreshGroup.Do("refresh", func() (any, error) {
		return nil, s.doRefresh(ctx)
	})
	if shared {
		log.Debug().Msg("joined in-flight token refresh")
	}
	return err
}

func (s *Store) doRefresh(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	if s.currentState() != StateAuthenticated {
		return ErrNotAuthenticated
	}

	// Enter Refreshing keeping the user and current access token; the
	// old token stays attached to requests until the rotation settles.
	s.mu.Lock()
	user := s.user
	refresh := s.refreshToken
	s.state = StateRefreshing
	s.mu.Unlock()

	newAccess, err := s.endpoint.Refresh(ctx, refresh)
	if err != nil {
		log.Warn().Err(err).Msg("token refresh failed, clearing session")
		s.creds.ClearAll()
		s.commit(StateUnauthenticated, nil, "", "", err)
		s.publish(EventAuthError, nil, err)
		return err
	}

	s.creds.Set(credentials.KeyAccessToken, newAccess)
	s.commit(StateAuthenticated, user, newAccess, refresh, nil)
	s.publish(EventTokenRefreshed, user, nil)

	log.Debug().Msg("access token refreshed")
	return nil
}

// Invalidate force-clears the session after an unrecoverable
// authentication failure, such as a retried request that is rejected
// again after a successful refresh. No-op when no session is established.
func (s *Store) Invalidate(reason error) {
	s.op.Lock()
	defer s.op.Unlock()

	state := s.currentState()
	if state != StateAuthenticated && state != StateRefreshing {
		return
	}

	log.Warn().Err(reason).Msg("session invalidated")
	s.creds.ClearAll()
	s.commit(StateUnauthenticated, nil, "", "", reason)
	s.publish(EventAuthError, nil, reason)
}

// commit atomically applies a transition to the snapshot fields.
// A successful transition clears lastError.
func (s *Store) commit(state State, user *models.User, accessToken, refreshToken string, lastError error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.user = user
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.lastError = lastError
}

// publish emits an event after the corresponding state is committed, so
// listeners observe the new state when they run. Callers hold op, which
// keeps publish order aligned with transition order.
func (s *Store) publish(eventType EventType, user *models.User, err error) {
	s.bus.Publish(Event{
		ID:   uuid.New(),
		Type: eventType,
		Time: s.clock.Now(),
		User: user,
		Err:  err,
	})
}

func (s *Store) currentState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) currentRefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// cachedProfile loads the persisted profile snapshot, if any.
func (s *Store) cachedProfile() *models.User {
	raw, ok := s.creds.Get(credentials.KeyUserProfile)
	if !ok {
		return nil
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.Warn().Err(err).Msg("cached profile unreadable, ignoring")
		return nil
	}
	return &user
}

func (s *Store) persistProfile(user *models.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		log.Warn().Err(err).Msg("failed to serialize profile for caching")
		return
	}
	s.creds.Set(credentials.KeyUserProfile, string(raw))
}

func isAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}
