package entity

// AuthPhase is the state of the auth store's state machine.
type AuthPhase int

const (
	// AuthPhaseLoading is the initial phase, before any session information arrived.
	AuthPhaseLoading AuthPhase = iota
	// AuthPhaseResolved means the signed-in identity (possibly none) is known.
	AuthPhaseResolved
	// AuthPhaseErrored means the initial session fetch failed and no event has arrived since.
	AuthPhaseErrored
)

// String returns the phase name.
func (p AuthPhase) String() string {
	switch p {
	case AuthPhaseLoading:
		return "loading"
	case AuthPhaseResolved:
		return "resolved"
	case AuthPhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// AuthState is an immutable snapshot of who is signed in.
type AuthState struct {
	User    *Identity // nil when signed out or not yet resolved.
	Loading bool      // true only while Phase is AuthPhaseLoading.
	Phase   AuthPhase
	Err     error // The fetch failure, set only in AuthPhaseErrored.
}

// Authenticated reports whether an identity is currently signed in.
func (s AuthState) Authenticated() bool {
	return s.User != nil
}
