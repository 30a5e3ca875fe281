// Package authstore keeps a process-wide view of who is signed in by mirroring
// the auth service's session and auth-change stream into an observable state.
//
// A Store starts in the loading phase. The first session fetch or the first
// auth-change event resolves it; from then on Loading stays false for the
// lifetime of the store. A failed fetch moves it to the errored phase, which
// the next auth-change event leaves again.
package authstore

import (
	"context"
	"log/slog"
	"sync"

	"tasker/internal/domain/entity"
	"tasker/internal/domain/service"
	"tasker/internal/errors"
)

var (
	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("auth store already initialized")

	// ErrClosed is returned by Initialize after Teardown.
	ErrClosed = errors.New("auth store closed")
)

// Teardown releases the store's subscription. Calling it more than once is a no-op.
type Teardown func()

// WatchFunc observes every state the store moves to.
type WatchFunc func(state entity.AuthState)

// Option configures a Store.
type Option func(*Store)

// WithStrategy selects the initialization strategy. The default is StrategyEager.
func WithStrategy(strategy Strategy) Option {
	return func(s *Store) {
		s.strategy = strategy
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store mirrors the auth service into a single observable AuthState.
type Store struct {
	client   service.AuthClient
	strategy Strategy
	logger   *slog.Logger

	// notifyMu serialises state changes with their delivery so watchers see them in order.
	notifyMu sync.Mutex

	mu          sync.Mutex
	state       entity.AuthState
	events      uint64 // auth-change events applied so far
	initialized bool
	closed      bool
	sub         service.Subscription
	watchers    map[uint64]WatchFunc
	nextWatchID uint64

	done         chan struct{}
	teardownOnce sync.Once
}

// New creates a store in the loading phase. Nothing is fetched or subscribed until Initialize.
func New(client service.AuthClient, opts ...Option) *Store {
	s := &Store{
		client:   client,
		strategy: StrategyEager,
		logger:   slog.Default(),
		state: entity.AuthState{
			Loading: true,
			Phase:   entity.AuthPhaseLoading,
		},
		watchers: make(map[uint64]WatchFunc),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Strategy returns the store's initialization strategy.
func (s *Store) Strategy() Strategy {
	return s.strategy
}

// State returns a snapshot of the current state.
func (s *Store) State() entity.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// User returns the signed-in identity, or nil.
func (s *Store) User() *entity.Identity {
	return s.State().User
}

// Loading reports whether the store has not resolved the initial session yet.
func (s *Store) Loading() bool {
	return s.State().Loading
}

// Done is closed once the store has been torn down.
func (s *Store) Done() <-chan struct{} {
	return s.done
}

// Initialize fetches the current session once and subscribes to auth-state changes.
// When the returned Teardown is called the subscription is released.
//
// With StrategyEager the fetch is awaited before returning. With StrategyBackground
// and StrategyEffect it runs in the background; StrategyEffect additionally calls
// Teardown when ctx is done. A failed fetch is not returned as an error: it moves
// the store to the errored phase.
func (s *Store) Initialize(ctx context.Context) (Teardown, error) {
	if s.client == nil {
		return nil, errors.New("auth store has no auth client")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return nil, ErrClosed
	}
	if s.initialized {
		s.mu.Unlock()

		return nil, ErrAlreadyInitialized
	}
	s.initialized = true
	s.mu.Unlock()

	s.logger.Debug("Initializing auth store", slog.String("strategy", string(s.strategy)))

	// Subscribing before the fetch means no change between the two is missed;
	// a fetch result older than an applied event is dropped in fetchInitial.
	s.subscribe()

	switch s.strategy {
	case StrategyEffect:
		go s.fetchInitial(ctx)
		go s.bindScope(ctx)
	case StrategyBackground:
		go s.fetchInitial(ctx)
	default:
		s.fetchInitial(ctx)
	}

	return s.Teardown, nil
}

// Teardown releases the subscription and freezes the state at its last value.
func (s *Store) Teardown() {
	s.teardownOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		sub := s.sub
		s.sub = nil
		s.watchers = make(map[uint64]WatchFunc)
		close(s.done)
		s.mu.Unlock()

		if sub != nil {
			sub.Unsubscribe()
		}

		s.logger.Debug("Auth store torn down")
	})
}

// Watch registers fn for every later state change and returns a function that
// removes it. fn runs on the goroutine that caused the change and must not
// trigger auth changes synchronously.
func (s *Store) Watch(fn WatchFunc) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return func() {}
	}

	id := s.nextWatchID
	s.nextWatchID++
	s.watchers[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// WaitResolved blocks until the store has left the loading phase and returns that state.
// It returns ErrClosed if the store is torn down first.
func (s *Store) WaitResolved(ctx context.Context) (entity.AuthState, error) {
	resolved := make(chan entity.AuthState, 1)
	cancel := s.Watch(func(state entity.AuthState) {
		if state.Loading {
			return
		}
		select {
		case resolved <- state:
		default:
		}
	})
	defer cancel()

	if state := s.State(); !state.Loading {
		return state, nil
	}

	select {
	case state := <-resolved:
		return state, nil
	case <-s.done:
		return s.State(), ErrClosed
	case <-ctx.Done():
		return s.State(), errors.WithStack(ctx.Err())
	}
}

func (s *Store) subscribe() {
	sub := s.client.OnAuthStateChange(s.handleAuthChange)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Unsubscribe()

		return
	}
	s.sub = sub
	s.mu.Unlock()
}

func (s *Store) bindScope(ctx context.Context) {
	select {
	case <-ctx.Done():
		s.logger.Debug("Auth store scope disposed")
		s.Teardown()
	case <-s.done:
	}
}

func (s *Store) fetchInitial(ctx context.Context) {
	s.mu.Lock()
	seen := s.events
	s.mu.Unlock()

	session, err := s.client.GetSession(ctx)

	s.apply(func(state *entity.AuthState) bool {
		if s.events != seen {
			s.logger.Debug("Dropping initial session superseded by an auth event")

			return false
		}

		if err != nil {
			s.logger.Warn("Initial session fetch failed", slog.Any("error", err))
			*state = entity.AuthState{
				Phase: entity.AuthPhaseErrored,
				Err:   errors.Wrap(err, "fetch initial session"),
			}

			return true
		}

		*state = resolvedState(session)

		return true
	})
}

func (s *Store) handleAuthChange(event entity.AuthEvent, session *entity.Session) {
	s.apply(func(state *entity.AuthState) bool {
		s.events++
		*state = resolvedState(session)
		s.logger.Debug("Auth state changed",
			slog.String("event", string(event)),
			slog.Bool("authenticated", state.User != nil),
		)

		return true
	})
}

// apply runs mutate under the state lock and, if it changed the state, notifies
// the watchers with the new snapshot. A closed store is never mutated.
func (s *Store) apply(mutate func(state *entity.AuthState) bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed || !mutate(&s.state) {
		s.mu.Unlock()

		return
	}
	snapshot := s.state
	watchers := make([]WatchFunc, 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(snapshot)
	}
}

func resolvedState(session *entity.Session) entity.AuthState {
	return entity.AuthState{
		User:  entity.UserOf(session),
		Phase: entity.AuthPhaseResolved,
	}
}
