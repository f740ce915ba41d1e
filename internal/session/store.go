// Package session holds the venue session credentials as process-wide state,
// seeded from configuration at startup and replaceable at runtime.
package session

import (
	"fmt"
	"sync"
)

// Store owns the access/refresh token pair for the venue session. There is no
// expiry tracking and no refresh exchange; rotation is the caller's job via Set.
// A single Store is constructed per process and passed to collaborators.
type Store struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

// NewStore seeds the store with the initial token pair. Empty strings are
// allowed; the store simply reports not ready until Set provides both.
func NewStore(access, refresh string) *Store {
	return &Store{access: access, refresh: refresh}
}

// Set overwrites both tokens unconditionally. No validation of token
// well-formedness is performed.
func (s *Store) Set(access, refresh string) {
	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.mu.Unlock()
}

// Ready reports whether both tokens are currently present. Authenticated
// operations fail closed when this is false.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access != "" && s.refresh != ""
}

// Tokens returns the current pair.
func (s *Store) Tokens() (access, refresh string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, s.refresh
}

// Cookie renders the composite cookie header value the REST endpoints expect.
// Returns an empty string when the store is not ready.
func (s *Store) Cookie() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.access == "" || s.refresh == "" {
		return ""
	}
	return fmt.Sprintf("auth-access-token=%s; auth-refresh-token=%s", s.access, s.refresh)
}

// Bearer returns the access token used for the socket authorization header.
func (s *Store) Bearer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}
