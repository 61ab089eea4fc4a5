// Package auth holds the session's role state. There is one shared
// admin password; viewers can read everything, only an authenticated
// admin can mutate the ledger or the employee registry.
package auth

import "crypto/subtle"

type Role int

const (
	Viewer Role = iota
	Admin
)

func (r Role) String() string {
	if r == Admin {
		return "admin"
	}
	return "viewer"
}

// Session carries the authentication state for one run of the app.
// Mutating operations consult CanWrite instead of branching on role
// directly.
type Session struct {
	role     Role
	password string
}

// NewSession starts a viewer session gated by password.
func NewSession(password string) *Session {
	return &Session{role: Viewer, password: password}
}

// Login upgrades the session to admin when the attempt matches.
func (s *Session) Login(attempt string) bool {
	if subtle.ConstantTimeCompare([]byte(attempt), []byte(s.password)) != 1 {
		return false
	}
	s.role = Admin
	return true
}

// Logout drops back to viewer.
func (s *Session) Logout() {
	s.role = Viewer
}

func (s *Session) Role() Role { return s.role }

// CanWrite reports whether ledger-mutating operations are allowed.
func (s *Session) CanWrite() bool { return s.role == Admin }
