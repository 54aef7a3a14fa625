package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/memoriesapp/memories/client/internal/types"
)

// ErrInvalidSession is returned by Establish for a session without a token
// or user identifier.
var ErrInvalidSession = errors.New("session: token and user id are required")

// Manager is the single source of truth for the current session. Pass it
// by reference; nothing else reads the Store.
type Manager struct {
	store Store

	mu     sync.RWMutex
	inited bool
	cur    *types.Session
}

// NewManager wraps store. Call Init before reading.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Init loads the persisted session once. Later calls are no-ops. A corrupt
// record is logged and treated as signed out.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inited {
		return nil
	}
	s, err := m.store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not load persisted session")
		if ctx.Err() != nil {
			return err
		}
		s = nil
	}
	m.cur = s
	m.inited = true
	return nil
}

// Current returns the session and whether one exists.
func (m *Manager) Current() (types.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cur == nil {
		return types.Session{}, false
	}
	return *m.cur, true
}

// UserID is the signed-in user's identifier, or "".
func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cur == nil {
		return ""
	}
	return m.cur.Result.UserID()
}

// Token is the bearer token, or "". It fits client.WithTokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cur == nil {
		return ""
	}
	return m.cur.Token
}

// Owns reports whether creator is the signed-in user under either
// identifier.
func (m *Manager) Owns(creator string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur != nil && m.cur.Result.Owns(creator)
}

// Establish persists and activates a session. Both credential and
// identity-provider sign-in end here.
func (m *Manager) Establish(ctx context.Context, result types.Profile, token string) error {
	if token == "" || result.UserID() == "" {
		return ErrInvalidSession
	}
	s := types.Session{Result: result, Token: token}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}
	m.cur = &s
	m.inited = true
	log.Info().Str("user_id", result.UserID()).Str("email", result.Email).Msg("session established")
	return nil
}

// Clear signs out, removing the persisted session.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.cur = nil
	log.Info().Msg("session cleared")
	return nil
}
