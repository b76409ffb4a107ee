package client

import (
	"encoding/json"
	"os"
	"sync"
)

// Session is the persistent credential store. It survives restarts
// via a small JSON file and notifies subscribers when the holder
// becomes unauthenticated, so an application can route to its login
// flow from one place.
type Session struct {
	path string

	mu    sync.Mutex
	token string
	user  *User

	onUnauthenticated []func()
}

type sessionState struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// NewSession loads any previously saved state from path. A missing or
// unreadable file just yields an empty session.
func NewSession(path string) *Session {
	s := &Session{path: path}

	raw, err := os.ReadFile(path)

	if err != nil {
		return s
	}

	var state sessionState

	if err := json.Unmarshal(raw, &state); err != nil {
		return s
	}

	s.token = state.Token
	s.user = state.User

	return s
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token
}

func (s *Session) User() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return User{}, false
	}

	return *s.user, true
}

// Save stores the credentials in memory and on disk.
func (s *Session) Save(token string, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.user = &u

	raw, err := json.Marshal(sessionState{Token: token, User: s.user})

	if err != nil {
		return err
	}

	return os.WriteFile(s.path, raw, 0o600)
}

// Clear wipes the credentials without firing the unauthenticated
// observers; use it for an ordinary logout.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clearLocked()
}

func (s *Session) clearLocked() error {
	s.token = ""
	s.user = nil

	err := os.Remove(s.path)

	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// OnUnauthenticated registers fn to run whenever the server rejects
// the session's token.
func (s *Session) OnUnauthenticated(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onUnauthenticated = append(s.onUnauthenticated, fn)
}

// invalidate is the 401 path: clear first, then notify.
func (s *Session) invalidate() {
	s.mu.Lock()
	_ = s.clearLocked()
	subs := make([]func(), len(s.onUnauthenticated))
	copy(subs, s.onUnauthenticated)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
