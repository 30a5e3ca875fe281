package gotrue

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"tasker/config"
	"tasker/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	event   entity.AuthEvent
	session *entity.Session
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) record(event entity.AuthEvent, session *entity.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{event: event, session: session})
}

func (r *recorder) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]recordedEvent(nil), r.events...)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthServer(t *testing.T, userID uuid.UUID) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body passwordGrant
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password != "correct horse" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))

			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-" + body.Email,
			"token_type":    "bearer",
			"expires_in":    3600,
			"refresh_token": "refresh",
			"user": map[string]any{
				"id":    userID.String(),
				"email": body.Email,
				"role":  "authenticated",
			},
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-someone@example.com" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))

			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            userID.String(),
			"email":         "renamed@example.com",
			"role":          "authenticated",
			"user_metadata": map[string]any{"display_name": "Someone"},
		})
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func TestClient_SignInWithPassword(t *testing.T) {
	userID := uuid.New()
	server := newAuthServer(t, userID)
	client := New(server.URL, "anon-key", time.Second, newTestLogger())

	rec := &recorder{}
	sub := client.OnAuthStateChange(rec.record)
	defer sub.Unsubscribe()

	session, err := client.SignInWithPassword(context.Background(), "someone@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "access-someone@example.com", session.AccessToken)
	assert.Equal(t, userID, session.User.ID)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	current, err := client.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, session.AccessToken, current.AccessToken)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, entity.AuthEventSignedIn, events[0].event)
	assert.Equal(t, userID, events[0].session.User.ID)
}

func TestClient_SignInWithPassword_Rejected(t *testing.T) {
	server := newAuthServer(t, uuid.New())
	client := New(server.URL, "anon-key", time.Second, newTestLogger())

	rec := &recorder{}
	client.OnAuthStateChange(rec.record)

	_, err := client.SignInWithPassword(context.Background(), "someone@example.com", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid_grant", apiErr.Code)
	assert.Empty(t, rec.all())

	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestClient_SignOut(t *testing.T) {
	server := newAuthServer(t, uuid.New())
	client := New(server.URL, "anon-key", time.Second, newTestLogger())

	_, err := client.SignInWithPassword(context.Background(), "someone@example.com", "correct horse")
	require.NoError(t, err)

	rec := &recorder{}
	client.OnAuthStateChange(rec.record)

	require.NoError(t, client.SignOut(context.Background()))

	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, entity.AuthEventSignedOut, events[0].event)
	assert.Nil(t, events[0].session)

	// Signing out without a session is a no-op.
	require.NoError(t, client.SignOut(context.Background()))
	assert.Len(t, rec.all(), 1)
}

func TestClient_RefreshUser(t *testing.T) {
	userID := uuid.New()
	server := newAuthServer(t, userID)
	client := New(server.URL, "anon-key", time.Second, newTestLogger())

	_, err := client.RefreshUser(context.Background())
	require.ErrorIs(t, err, ErrNoSession)

	_, err = client.SignInWithPassword(context.Background(), "someone@example.com", "correct horse")
	require.NoError(t, err)

	rec := &recorder{}
	client.OnAuthStateChange(rec.record)

	identity, err := client.RefreshUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "renamed@example.com", identity.Email)
	assert.Equal(t, "Someone", identity.Metadata["display_name"])

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, entity.AuthEventUserUpdated, events[0].event)
}

func TestClient_SetAccessToken(t *testing.T) {
	userID := uuid.New()
	server := newAuthServer(t, userID)
	client := New(server.URL, "anon-key", time.Second, newTestLogger())

	_, err := client.SetAccessToken(context.Background(), "bogus", time.Time{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "invalid JWT")

	session, err := client.SetAccessToken(context.Background(), "access-someone@example.com", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, userID, session.User.ID)

	current, err := client.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, userID, current.User.ID)
}

func TestClient_GetSession_ExpiredReadsAsNone(t *testing.T) {
	server := newAuthServer(t, uuid.New())
	client := New(server.URL, "anon-key", time.Second, newTestLogger())

	_, err := client.SignInWithPassword(context.Background(), "someone@example.com", "correct horse")
	require.NoError(t, err)

	client.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestClient_GetSession_CanceledContext(t *testing.T) {
	client := New("http://127.0.0.1:0", "", time.Second, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetSession(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Unsubscribe(t *testing.T) {
	server := newAuthServer(t, uuid.New())
	client := New(server.URL, "anon-key", time.Second, newTestLogger())

	rec := &recorder{}
	sub := client.OnAuthStateChange(rec.record)
	sub.Unsubscribe()
	sub.Unsubscribe()

	_, err := client.SignInWithPassword(context.Background(), "someone@example.com", "correct horse")
	require.NoError(t, err)
	assert.Empty(t, rec.all())
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(&config.Config{}, newTestLogger())
	assert.Error(t, err)

	client, err := NewClient(&config.Config{GoTrue: &config.GoTrueConfig{URL: "http://auth.local/"}}, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "http://auth.local", client.baseURL)
}

func TestClient_ConcurrentChangesPublishInStoreOrder(t *testing.T) {
	client := New("http://auth.local", "", time.Second, newTestLogger())

	var (
		mu   sync.Mutex
		last *entity.Session
	)
	client.OnAuthStateChange(func(_ entity.AuthEvent, session *entity.Session) {
		mu.Lock()
		last = session
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := range 200 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			client.setSession(entity.AuthEventSignedIn, &entity.Session{AccessToken: "token-" + strconv.Itoa(i)})
		}()
		go func() {
			defer wg.Done()
			client.setSession(entity.AuthEventSignedOut, nil)
		}()
	}
	wg.Wait()

	current, err := client.GetSession(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Same(t, current, last)
}
