// Package client is the typed consumer of the identity API: an HTTP client
// that holds the session credential, plus the explicit state stores the view
// layer reads from.
//
// WHY DOES THE SERVER REPO SHIP A CLIENT?
// The web frontend talks to exactly this surface. Keeping a typed Go client
// next to the handlers keeps the contract honest in both directions: the
// end-to-end tests drive the real routes through this package, and any
// payload drift breaks the build here instead of in a browser.
package client

import "sync"

// SessionStore holds the access token for the current session, in memory.
//
// This is the Go analogue of session-scoped browser storage: the token lives
// exactly as long as the process, is read on every outgoing request, and is
// cleared the moment the server stops honouring it. The refresh token is
// deliberately NOT kept here — the client only ever persists the access
// token.
//
// Safe for concurrent use; the view layer and in-flight requests may touch
// it from different goroutines.
type SessionStore struct {
	mu    sync.RWMutex
	token string
}

// NewSessionStore returns an empty session (signed out).
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Set records the access token for subsequent requests.
func (s *SessionStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Token returns the stored access token, or "" when signed out.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Clear drops the stored token. Called on sign-out and whenever the server
// answers 401 — the session is assumed invalid from that point on.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}
