package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/logutil"
)

// SessionStore holds the client session and keeps the persisted credential
// in step with it. Every mutation replaces the whole state under the lock.
type SessionStore struct {
	creds   domain.CredentialStore
	fetcher domain.CurrentUserFetcher
	logger  *slog.Logger

	mu    sync.RWMutex
	state domain.Session
	// generation is bumped by Login, Logout and ClearAuth so that an
	// initialization pass finishing afterwards does not overwrite them.
	generation uint64
	// credsMu orders credential writes the same way as state commits.
	credsMu sync.Mutex

	subsMu sync.Mutex
	subs   map[int]func(domain.SessionEvent)
	nextID int
}

// NewSessionStore creates an empty session store
func NewSessionStore(creds domain.CredentialStore, fetcher domain.CurrentUserFetcher, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = logutil.Discard()
	}
	return &SessionStore{
		creds:   creds,
		fetcher: fetcher,
		logger:  logger,
		subs:    make(map[int]func(domain.SessionEvent)),
	}
}

// Snapshot returns a copy of the current session
func (s *SessionStore) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn for session events and returns a function that
// removes the subscription.
func (s *SessionStore) Subscribe(fn func(domain.SessionEvent)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *SessionStore) publish(event domain.SessionEvent) {
	s.subsMu.Lock()
	fns := make([]func(domain.SessionEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}

// Login commits a confirmed user and token and persists the token
func (s *SessionStore) Login(ctx context.Context, user *domain.User, token string) error {
	if token == "" {
		return domain.ErrMissingToken
	}

	s.credsMu.Lock()
	s.mu.Lock()
	s.state = domain.Session{
		User:            user,
		Token:           token,
		IsAuthenticated: true,
		IsLoading:       false,
	}
	s.generation++
	s.mu.Unlock()
	err := s.creds.Set(ctx, token)
	s.credsMu.Unlock()

	s.publish(domain.NewSessionEvent(domain.SessionLoginEvent, user))

	if err != nil {
		return logutil.LogAndWrapErr(s.logger, "failed to persist credential", err)
	}
	s.logger.Info("session logged in", "user_id", userID(user))
	return nil
}

// Logout clears the session and removes the persisted token
func (s *SessionStore) Logout(ctx context.Context) error {
	return s.clear(ctx, domain.SessionLogoutEvent)
}

// ClearAuth is Logout under the name used by the reconciliation paths
func (s *SessionStore) ClearAuth(ctx context.Context) error {
	return s.clear(ctx, domain.SessionClearedEvent)
}

func (s *SessionStore) clear(ctx context.Context, eventType domain.SessionEventType) error {
	_, err := s.clearIf(ctx, eventType, func(uint64) bool { return true })
	return err
}

// clearIf resets the session and removes the credential when ok accepts the
// current generation. It reports whether the session was cleared.
func (s *SessionStore) clearIf(ctx context.Context, eventType domain.SessionEventType, ok func(gen uint64) bool) (bool, error) {
	s.credsMu.Lock()
	s.mu.Lock()
	if !ok(s.generation) {
		s.mu.Unlock()
		s.credsMu.Unlock()
		return false, nil
	}
	user := s.state.User
	s.state = domain.Session{}
	s.generation++
	s.mu.Unlock()
	err := s.creds.Remove(ctx)
	s.credsMu.Unlock()

	s.publish(domain.NewSessionEvent(eventType, user))

	if err != nil {
		return true, logutil.LogAndWrapErr(s.logger, "failed to remove credential", err)
	}
	return true, nil
}

// SetLoading sets only the loading flag
func (s *SessionStore) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = loading
}

// Reset drops state and subscribers without touching the credential store.
// Tests use it to reuse a store between cases.
func (s *SessionStore) Reset() {
	s.mu.Lock()
	s.state = domain.Session{}
	s.generation++
	s.mu.Unlock()

	s.subsMu.Lock()
	s.subs = make(map[int]func(domain.SessionEvent))
	s.subsMu.Unlock()
}

// InitializeAuth reconciles the persisted token with the in-memory session.
//
// It is a no-op when the session is already confirmed or another pass is in
// flight. Otherwise the stored token is trusted optimistically while the
// current user is fetched; only a confirmed unauthorized answer clears the
// session, any other failure keeps the token.
func (s *SessionStore) InitializeAuth(ctx context.Context) {
	s.mu.Lock()
	if s.state.Confirmed() || s.state.IsLoading {
		s.mu.Unlock()
		return
	}
	s.state.IsLoading = true
	gen := s.generation
	s.mu.Unlock()

	token, err := s.creds.Get(ctx)
	if err != nil {
		s.credentialReadFailed(gen, err)
		return
	}

	if !s.commit(gen, func(st *domain.Session) {
		st.Token = token
		st.IsAuthenticated = true
		st.IsLoading = true
	}) {
		return
	}
	s.publish(domain.NewSessionEvent(domain.SessionOptimisticEvent, nil))

	user, err := s.fetcher.CurrentUser(ctx, token)
	switch {
	case err == nil && user != nil:
		if s.commit(gen, func(st *domain.Session) {
			st.User = user
			st.IsAuthenticated = true
			st.IsLoading = false
		}) {
			s.logger.Info("session restored", "user_id", user.ID)
			s.publish(domain.NewSessionEvent(domain.SessionRestoredEvent, user))
		}

	case err == nil:
		s.logger.Warn("current user payload was empty, keeping session optimistic")
		s.commit(gen, func(st *domain.Session) {
			st.User = nil
			st.IsAuthenticated = true
			st.IsLoading = false
		})

	case domain.IsUnauthorized(err):
		cleared, clearErr := s.clearIf(ctx, domain.SessionClearedEvent, func(current uint64) bool { return current == gen })
		if clearErr != nil {
			s.logger.Error("failed to clear rejected session", "error", clearErr)
		}
		if cleared {
			s.logger.Info("stored credential rejected, session cleared")
		}

	default:
		s.logger.Warn("session validation failed, keeping token", "error", err)
		if s.commit(gen, func(st *domain.Session) {
			st.IsAuthenticated = true
			st.IsLoading = false
		}) {
			s.publish(domain.NewSessionEvent(domain.SessionTransientFailureEvent, nil).WithError(err))
		}
	}
}

// credentialReadFailed settles a pass whose credential read failed. A missing
// credential ends anonymous. Any other failure keeps a token already held.
func (s *SessionStore) credentialReadFailed(gen uint64, err error) {
	missing := errors.Is(err, domain.ErrCredentialNotFound)
	if !missing {
		s.logger.Warn("failed to read credential", "error", err)
	}

	kept := false
	if !s.commit(gen, func(st *domain.Session) {
		if !missing && st.Token != "" {
			kept = true
			st.IsAuthenticated = true
			st.IsLoading = false
			return
		}
		*st = domain.Session{}
	}) {
		return
	}

	if kept {
		s.publish(domain.NewSessionEvent(domain.SessionTransientFailureEvent, nil).WithError(err))
		return
	}
	s.publish(domain.NewSessionEvent(domain.SessionAnonymousEvent, nil))
}

// commit applies fn when no Login, Logout or ClearAuth happened since gen
func (s *SessionStore) commit(gen uint64, fn func(*domain.Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	fn(&s.state)
	return true
}

func userID(u *domain.User) uint {
	if u == nil {
		return 0
	}
	return u.ID
}
