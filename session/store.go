package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-web-template/session/identitycache"
	"github.com/jrsteele09/go-web-template/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	refreshKey            = "refresh"
	defaultRefreshTimeout = 15 * time.Second
	persistTimeout        = 5 * time.Second
)

// Store is the single source of truth for one browser session: who is signed in,
// and with which access token.
//
// The identity half is written through to an identitycache.Repo so it survives a
// restart. The credential half lives in memory only.
type Store struct {
	id             string
	identities     identitycache.Repo
	refresher      Refresher
	cache          CacheClearer
	refreshTimeout time.Duration
	logger         zerolog.Logger

	mu         sync.RWMutex
	credential *oauth2.Token
	user       *users.User
	loading    bool
	generation uint64 // bumped by every SetAuth and Logout

	refreshGroup singleflight.Group
	bootstrapped atomic.Bool

	listenersMu  sync.Mutex
	listeners    map[int]func(State)
	nextListener int
}

// StoreOption modifies a Store at construction
type StoreOption func(*Store)

// WithRefreshTimeout bounds how long a single refresh call may take
func WithRefreshTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		s.refreshTimeout = d
	}
}

// NewStore creates the store for browser session id and rehydrates any persisted
// identity. The store always starts loading and without an access token.
func NewStore(ctx context.Context, id string, identities identitycache.Repo, refresher Refresher, cache CacheClearer, options ...StoreOption) (*Store, error) {
	if id == "" {
		return nil, errors.New("[NewStore] session id is required")
	}
	if identities == nil {
		return nil, errors.New("[NewStore] identities repo is required")
	}
	if refresher == nil {
		return nil, errors.New("[NewStore] refresher is required")
	}

	s := &Store{
		id:             id,
		identities:     identities,
		refresher:      refresher,
		cache:          cache,
		refreshTimeout: defaultRefreshTimeout,
		logger:         log.With().Str("session", shortID(id)).Logger(),
		loading:        true,
		listeners:      make(map[int]func(State)),
	}
	for _, opt := range options {
		opt(s)
	}

	user, err := identities.Get(ctx, id)
	if err != nil {
		return nil, errors.Join(errors.New("[NewStore] failed to rehydrate identity"), err)
	}
	s.user = user

	return s, nil
}

// ID returns the browser session ID the store belongs to
func (s *Store) ID() string {
	return s.id
}

// State returns a snapshot of the store
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

// AccessToken returns the current access token, or "" when none is held
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.credential == nil {
		return ""
	}
	return s.credential.AccessToken
}

// SetAuth overwrites the access token and the user. The in-memory state is always
// updated; the returned error reports a failure to persist the identity. Cached
// responses are dropped when the user changes.
func (s *Store) SetAuth(ctx context.Context, accessToken string, user users.User) error {
	s.mu.Lock()
	changed := s.identityChangesLocked(user)
	state, err := s.setAuthLocked(ctx, accessToken, user)
	s.mu.Unlock()

	if changed {
		s.clearCache()
	}
	s.notify(state)
	return err
}

// Logout clears the access token and the user and drops any cached response data
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	state := s.clearLocked(ctx)
	s.mu.Unlock()

	s.clearCache()
	s.notify(state)
}

// SetLoading records whether the start-up sequence is still running
func (s *Store) SetLoading(isLoading bool) {
	s.mu.Lock()
	s.loading = isLoading
	state := s.stateLocked()
	s.mu.Unlock()

	s.notify(state)
}

// TryRefreshToken exchanges the ambient refresh credential for a new access token.
// Concurrent callers share one in-flight exchange. It reports whether the store
// holds a token afterwards; a failed exchange logs the session out.
func (s *Store) TryRefreshToken(ctx context.Context) bool {
	result := s.refreshGroup.DoChan(refreshKey, func() (interface{}, error) {
		return s.refresh(context.WithoutCancel(ctx)), nil
	})

	select {
	case r := <-result:
		ok, _ := r.Val.(bool)
		return ok
	case <-ctx.Done():
		return false
	}
}

// Bootstrap runs the start-up sequence: when a persisted identity exists the
// credential is recovered through a refresh, then loading ends. It runs once per
// store and reports whether this call ran it.
func (s *Store) Bootstrap(ctx context.Context) bool {
	if !s.bootstrapped.CompareAndSwap(false, true) {
		return false
	}

	s.SetLoading(true)
	defer s.SetLoading(false)

	// Only a persisted user indicates a previous session worth recovering
	if s.State().User != nil {
		s.TryRefreshToken(ctx)
	}
	return true
}

// Subscribe registers fn to receive every new state. The returned function removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) refresh(ctx context.Context) bool {
	s.mu.RLock()
	generation := s.generation
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()

	payload, err := s.refresher.RefreshToken(ctx)
	if err == nil && payload.IsEmpty() {
		err = errors.New("refresh returned no credential")
	}

	s.mu.Lock()
	if s.generation != generation {
		// A login or logout landed while the exchange was in flight; it wins
		authenticated := s.credential != nil
		s.mu.Unlock()
		s.logger.Debug().Bool("authenticated", authenticated).Msg("Discarded superseded refresh result")
		return authenticated
	}

	if err != nil {
		state := s.clearLocked(ctx)
		s.mu.Unlock()

		s.logger.Info().Err(err).Msg("Refresh token failed (normal for a first visit)")
		s.clearCache()
		s.notify(state)
		return false
	}

	changed := s.identityChangesLocked(payload.User)
	state, err := s.setAuthLocked(ctx, payload.AccessToken, payload.User)
	s.mu.Unlock()
	if err != nil {
		s.logger.Err(err).Msg("Failed to persist identity")
	}

	if changed {
		s.clearCache()
	}
	s.notify(state)
	return true
}

// identityChangesLocked reports whether user replaces a different (or no) identity
func (s *Store) identityChangesLocked(user users.User) bool {
	return s.user == nil || s.user.ID != user.ID
}

// persistContext outlives the caller's deadline so a write that follows a timed out
// call still reaches the identity repo
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

func (s *Store) setAuthLocked(ctx context.Context, accessToken string, user users.User) (State, error) {
	s.credential = newCredential(accessToken)
	s.user = &user
	s.generation++

	ctx, cancel := persistContext(ctx)
	defer cancel()

	persisted := user
	if err := s.identities.Upsert(ctx, s.id, &persisted); err != nil {
		return s.stateLocked(), fmt.Errorf("[Store SetAuth] persist identity: %w", err)
	}
	return s.stateLocked(), nil
}

func (s *Store) clearLocked(ctx context.Context) State {
	s.credential = nil
	s.user = nil
	s.generation++

	ctx, cancel := persistContext(ctx)
	defer cancel()

	if err := s.identities.Delete(ctx, s.id); err != nil {
		s.logger.Err(err).Msg("Failed to delete persisted identity")
	}
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	state := State{IsLoading: s.loading}
	if s.credential != nil {
		state.AccessToken = s.credential.AccessToken
		state.ExpiresAt = s.credential.Expiry
	}
	if s.user != nil {
		u := *s.user
		state.User = &u
	}
	return state
}

func (s *Store) clearCache() {
	if s.cache != nil {
		s.cache.ClearStore()
	}
}

func (s *Store) notify(state State) {
	s.listenersMu.Lock()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
