package authstore

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"tasker/config"
	"tasker/internal/domain/entity"
	"tasker/internal/domain/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscription struct {
	client *fakeAuthClient
	id     int
	once   sync.Once
}

func (s *fakeSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.client.mu.Lock()
		defer s.client.mu.Unlock()
		delete(s.client.subs, s.id)
		s.client.unsubscribed++
	})
}

type fakeAuthClient struct {
	mu           sync.Mutex
	session      *entity.Session
	err          error
	gate         chan struct{}
	fetchStarted chan struct{}
	subs         map[int]service.AuthStateChangeFunc
	nextID       int
	unsubscribed int
}

func newFakeAuthClient(session *entity.Session) *fakeAuthClient {
	return &fakeAuthClient{
		session:      session,
		subs:         make(map[int]service.AuthStateChangeFunc),
		fetchStarted: make(chan struct{}, 1),
	}
}

func (c *fakeAuthClient) GetSession(ctx context.Context) (*entity.Session, error) {
	c.fetchStarted <- struct{}{}

	c.mu.Lock()
	gate := c.gate
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session, c.err
}

func (c *fakeAuthClient) OnAuthStateChange(fn service.AuthStateChangeFunc) service.Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.subs[id] = fn

	return &fakeSubscription{client: c, id: id}
}

func (c *fakeAuthClient) emit(event entity.AuthEvent, session *entity.Session) {
	c.mu.Lock()
	fns := make([]service.AuthStateChangeFunc, 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

func (c *fakeAuthClient) subscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.subs)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSession() *entity.Session {
	return &entity.Session{
		AccessToken: uuid.NewString(),
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        &entity.Identity{ID: uuid.New(), Email: "someone@example.com"},
	}
}

func TestStore_StartsLoading(t *testing.T) {
	store := New(newFakeAuthClient(nil), WithLogger(newTestLogger()))

	state := store.State()
	assert.True(t, state.Loading)
	assert.Nil(t, state.User)
	assert.Equal(t, entity.AuthPhaseLoading, state.Phase)
	assert.Equal(t, StrategyEager, store.Strategy())
}

func TestStore_Eager_NoPriorSession(t *testing.T) {
	client := newFakeAuthClient(nil)
	store := New(client, WithLogger(newTestLogger()))

	teardown, err := store.Initialize(context.Background())
	require.NoError(t, err)
	defer teardown()

	assert.Nil(t, store.User())
	assert.False(t, store.Loading())
	assert.Equal(t, entity.AuthPhaseResolved, store.State().Phase)
	assert.Equal(t, 1, client.subscriberCount())
}

func TestStore_Eager_PriorSession(t *testing.T) {
	session := newSession()
	store := New(newFakeAuthClient(session), WithLogger(newTestLogger()))

	teardown, err := store.Initialize(context.Background())
	require.NoError(t, err)
	defer teardown()

	assert.Same(t, session.User, store.User())
	assert.False(t, store.Loading())
}

func TestStore_SignInAndSignOutEvents(t *testing.T) {
	client := newFakeAuthClient(nil)
	store := New(client, WithLogger(newTestLogger()))

	teardown, err := store.Initialize(context.Background())
	require.NoError(t, err)
	defer teardown()

	signedIn := newSession()
	client.emit(entity.AuthEventSignedIn, signedIn)

	assert.Same(t, signedIn.User, store.User())
	assert.False(t, store.Loading())

	client.emit(entity.AuthEventSignedOut, nil)

	assert.Nil(t, store.User())
	assert.False(t, store.Loading())
	assert.Equal(t, entity.AuthPhaseResolved, store.State().Phase)
}

func TestStore_LoadingNeverReturnsToTrue(t *testing.T) {
	client := newFakeAuthClient(nil)
	store := New(client, WithStrategy(StrategyBackground), WithLogger(newTestLogger()))

	var mu sync.Mutex
	var seen []entity.AuthState
	cancel := store.Watch(func(state entity.AuthState) {
		mu.Lock()
		seen = append(seen, state)
		mu.Unlock()
	})
	defer cancel()

	teardown, err := store.Initialize(context.Background())
	require.NoError(t, err)
	defer teardown()

	_, err = store.WaitResolved(context.Background())
	require.NoError(t, err)

	events := []entity.AuthEvent{
		entity.AuthEventSignedIn,
		entity.AuthEventTokenRefreshed,
		entity.AuthEventSignedOut,
		entity.AuthEventSignedIn,
		entity.AuthEventUserUpdated,
	}
	for _, event := range events {
		var session *entity.Session
		if event != entity.AuthEventSignedOut {
			session = newSession()
		}
		client.emit(event, session)
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	for _, state := range seen {
		assert.False(t, state.Loading)
	}
	assert.False(t, store.Loading())
}

func TestStore_TeardownStopsMutations(t *testing.T) {
	client := newFakeAuthClient(nil)
	store := New(client, WithLogger(newTestLogger()))

	teardown, err := store.Initialize(context.Background())
	require.NoError(t, err)

	before := store.State()
	teardown()
	teardown()

	client.emit(entity.AuthEventSignedIn, newSession())

	assert.Equal(t, before, store.State())
	assert.Equal(t, 0, client.subscriberCount())
	assert.Equal(t, 1, client.unsubscribed)

	select {
	case <-store.Done():
	default:
		t.Fatal("expected Done to be closed after teardown")
	}
}

func TestStore_TeardownDropsInFlightFetch(t *testing.T) {
	client := newFakeAuthClient(newSession())
	client.gate = make(chan struct{})
	store := New(client, WithStrategy(StrategyBackground), WithLogger(newTestLogger()))

	teardown, err := store.Initialize(context.Background())
	require.NoError(t, err)
	<-client.fetchStarted

	teardown()
	close(client.gate)

	// Give the background fetch a chance to finish.
	time.Sleep(20 * time.Millisecond)

	state := store.State()
	assert.True(t, state.Loading)
	assert.Nil(t, state.User)
}

func TestStore_StaleFetchIsDropped(t *testing.T) {
	client := newFakeAuthClient(nil)
	client.gate = make(chan struct{})
	store := New(client, WithStrategy(StrategyBackground), WithLogger(newTestLogger()))

	teardown, err := store.Initialize(context.Background())
	require.NoError(t, err)
	defer teardown()
	<-client.fetchStarted

	signedIn := newSession()
	client.emit(entity.AuthEventSignedIn, signedIn)
	close(client.gate)

	time.Sleep(20 * time.Millisecond)

	assert.Same(t, signedIn.User, store.User())
	assert.False(t, store.Loading())
}

func TestStore_FetchFailureIsErrored(t *testing.T) {
	client := newFakeAuthClient(nil)
	client.err = assert.AnError
	store := New(client, WithLogger(newTestLogger()))

	teardown, err := store.Initialize(context.Background())
	require.NoError(t, err)
	defer teardown()

	state := store.State()
	assert.Equal(t, entity.AuthPhaseErrored, state.Phase)
	assert.False(t, state.Loading)
	assert.Nil(t, state.User)
	require.Error(t, state.Err)
	assert.ErrorIs(t, state.Err, assert.AnError)

	signedIn := newSession()
	client.emit(entity.AuthEventSignedIn, signedIn)

	state = store.State()
	assert.Equal(t, entity.AuthPhaseResolved, state.Phase)
	assert.NoError(t, state.Err)
	assert.Same(t, signedIn.User, state.User)
}

func TestStore_Background_ReturnsBeforeFetchSettles(t *testing.T) {
	session := newSession()
	client := newFakeAuthClient(session)
	client.gate = make(chan struct{})
	store := New(client, WithStrategy(StrategyBackground), WithLogger(newTestLogger()))

	teardown, err := store.Initialize(context.Background())
	require.NoError(t, err)
	defer teardown()
	<-client.fetchStarted

	assert.True(t, store.Loading())

	close(client.gate)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	state, err := store.WaitResolved(ctx)
	require.NoError(t, err)
	assert.Same(t, session.User, state.User)
	assert.False(t, state.Loading)
}

func TestStore_Effect_TeardownOnScopeDisposal(t *testing.T) {
	session := newSession()
	client := newFakeAuthClient(session)
	store := New(client, WithStrategy(StrategyEffect), WithLogger(newTestLogger()))

	scope, dispose := context.WithCancel(context.Background())
	_, err := store.Initialize(scope)
	require.NoError(t, err)

	state, err := store.WaitResolved(context.Background())
	require.NoError(t, err)
	assert.Same(t, session.User, state.User)

	dispose()

	select {
	case <-store.Done():
	case <-time.After(time.Second):
		t.Fatal("store was not torn down when its scope was disposed")
	}

	client.emit(entity.AuthEventSignedOut, nil)
	assert.Same(t, session.User, store.User())
	assert.Equal(t, 0, client.subscriberCount())
}

func TestStore_WaitResolved_Closed(t *testing.T) {
	client := newFakeAuthClient(nil)
	client.gate = make(chan struct{})
	store := New(client, WithStrategy(StrategyBackground), WithLogger(newTestLogger()))

	teardown, err := store.Initialize(context.Background())
	require.NoError(t, err)
	<-client.fetchStarted
	teardown()

	_, err = store.WaitResolved(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	close(client.gate)
}

func TestStore_InitializeLifecycleErrors(t *testing.T) {
	store := New(newFakeAuthClient(nil), WithLogger(newTestLogger()))

	teardown, err := store.Initialize(context.Background())
	require.NoError(t, err)

	_, err = store.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	teardown()

	fresh := New(newFakeAuthClient(nil), WithLogger(newTestLogger()))
	fresh.Teardown()
	_, err = fresh.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	_, err = New(nil).Initialize(context.Background())
	assert.Error(t, err)
}

func TestStore_WatchCancel(t *testing.T) {
	client := newFakeAuthClient(nil)
	store := New(client, WithLogger(newTestLogger()))

	calls := 0
	cancel := store.Watch(func(entity.AuthState) { calls++ })

	teardown, err := store.Initialize(context.Background())
	require.NoError(t, err)
	defer teardown()
	assert.Equal(t, 1, calls)

	cancel()
	client.emit(entity.AuthEventSignedIn, newSession())
	assert.Equal(t, 1, calls)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		value   string
		want    Strategy
		wantErr bool
	}{
		{value: "", want: StrategyEager},
		{value: "eager", want: StrategyEager},
		{value: "Effect", want: StrategyEffect},
		{value: " background ", want: StrategyBackground},
		{value: "lazy", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseStrategy(tt.value)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, StrategyEager.AwaitsInitialFetch())
	assert.False(t, StrategyEffect.AwaitsInitialFetch())
	assert.False(t, StrategyBackground.AwaitsInitialFetch())
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{AuthStore: &config.AuthStoreConfig{Strategy: "effect"}}

	store, err := NewFromConfig(cfg, newFakeAuthClient(nil), newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, StrategyEffect, store.Strategy())

	cfg.AuthStore.Strategy = "sometimes"
	_, err = NewFromConfig(cfg, newFakeAuthClient(nil), newTestLogger())
	assert.Error(t, err)
}
