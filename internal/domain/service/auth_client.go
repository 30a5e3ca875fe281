// Package service defines the interfaces of the external collaborators used by the domain.
package service

import (
	"context"

	"tasker/internal/domain/entity"
)

// AuthStateChangeFunc receives every auth-state change together with the new session
// (nil after a sign-out).
type AuthStateChangeFunc func(event entity.AuthEvent, session *entity.Session)

// Subscription is a live registration on the auth-change stream.
type Subscription interface {
	// Unsubscribe stops further callbacks. It is safe to call more than once.
	Unsubscribe()
}

// AuthClient is the contract consumed from the external auth service.
type AuthClient interface {
	// GetSession returns the current session, or nil when nobody is signed in.
	GetSession(ctx context.Context) (*entity.Session, error)

	// OnAuthStateChange registers fn for all future auth-state changes.
	OnAuthStateChange(fn AuthStateChangeFunc) Subscription
}
