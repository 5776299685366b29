// Package dashboard is the client-side data and auth layer: explicit session
// state, a GraphQL HTTP client and the prediction view model.
package dashboard

import (
	"sync"

	"analyzeit.org/internal/auth"
)

// TokenStore persists the session token between runs. Implementations decide
// where it lives (memory, keychain, file).
type TokenStore interface {
	Save(token string) error
	Load() (string, error)
	Clear() error
}

// MemoryTokenStore keeps the token in memory only.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// Session is the explicit authentication state of the client. The zero value
// is the signed-out state.
type Session struct {
	Token string
	User  *auth.PublicUser
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool { return s.Token != "" }

// SessionManager owns the current session and its transitions. In the open
// deployment mode (auth disabled) every session reports authenticated and no
// token is ever attached to requests.
type SessionManager struct {
	store        TokenStore
	authDisabled bool

	mu      sync.Mutex
	current Session
}

// ManagerOption configures a SessionManager.
type ManagerOption func(*SessionManager)

// WithAuthDisabled switches the client into the open deployment mode.
func WithAuthDisabled(disabled bool) ManagerOption {
	return func(m *SessionManager) { m.authDisabled = disabled }
}

// NewSessionManager builds a manager over the given token store.
func NewSessionManager(store TokenStore, opts ...ManagerOption) *SessionManager {
	if store == nil {
		store = &MemoryTokenStore{}
	}
	m := &SessionManager{store: store}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AuthDisabled reports the open deployment mode.
func (m *SessionManager) AuthDisabled() bool { return m.authDisabled }

// Current returns the session as of now.
func (m *SessionManager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Begin installs a fresh session after a successful login or registration
// and persists the token.
func (m *SessionManager) Begin(token string, user *auth.PublicUser) (Session, error) {
	m.mu.Lock()
	m.current = Session{Token: token, User: user}
	session := m.current
	m.mu.Unlock()
	if err := m.store.Save(token); err != nil {
		return session, err
	}
	return session, nil
}

// End clears the session and the persisted token. Logout is local: tokens
// are stateless on the server and simply expire.
func (m *SessionManager) End() error {
	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()
	return m.store.Clear()
}

// Restore rehydrates the token from the store, typically at startup. The
// user profile is not persisted; callers refetch it via the me query.
func (m *SessionManager) Restore() (Session, bool) {
	token, err := m.store.Load()
	if err != nil || token == "" {
		return Session{}, false
	}
	m.mu.Lock()
	m.current = Session{Token: token}
	session := m.current
	m.mu.Unlock()
	return session, true
}

// bearer returns the token to attach to an outbound request, empty in the
// open deployment mode.
func (m *SessionManager) bearer() string {
	if m.authDisabled {
		return ""
	}
	return m.Current().Token
}
