// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the authenticated user reference issued by the external auth service.
// tasker never creates or mutates identities; it only carries them around.
type Identity struct {
	ID       uuid.UUID      // The user's ID in the auth service (the 'sub' claim).
	Email    string         // The user's email, if the auth service exposes it.
	Role     string         // The role claim issued by the auth service, e.g. "authenticated".
	Metadata map[string]any // Free-form user metadata forwarded by the auth service.
}

// Session is a short-lived association between a client and an Identity.
type Session struct {
	AccessToken  string    // Bearer token presented to the task API.
	RefreshToken string    // Opaque token owned by the auth service.
	TokenType    string    // Usually "bearer".
	ExpiresAt    time.Time // Absolute expiry of the access token.
	User         *Identity // The identity this session belongs to.
}

// Expired reports whether the access token is past its expiry at the given time.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}

	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// UserOf returns the identity carried by the session, or nil when there is no session.
func UserOf(s *Session) *Identity {
	if s == nil {
		return nil
	}

	return s.User
}

// AuthEvent names an auth-state change emitted by the auth service.
type AuthEvent string

const (
	AuthEventInitialSession AuthEvent = "INITIAL_SESSION"
	AuthEventSignedIn       AuthEvent = "SIGNED_IN"
	AuthEventSignedOut      AuthEvent = "SIGNED_OUT"
	AuthEventUserUpdated    AuthEvent = "USER_UPDATED"
	AuthEventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)
