// Package gotrue is a client for a GoTrue-compatible auth service.
// It keeps the current session in memory and broadcasts every change to it,
// which is what the auth store subscribes to.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"tasker/config"
	"tasker/internal/domain/entity"
	"tasker/internal/domain/service"

	"github.com/pkg/errors"
)

const defaultTimeout = 10 * time.Second

// ErrNoSession is returned by operations that need a signed-in session.
var ErrNoSession = errors.New("no active session")

// Client talks to the auth service over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.RWMutex
	session *entity.Session

	// publishMu keeps broadcasts in the order the sessions were stored.
	publishMu sync.Mutex
	bus       *eventBus
}

// NewClient creates a client from the gotrue config section.
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg.GoTrue == nil || strings.TrimSpace(cfg.GoTrue.URL) == "" {
		return nil, errors.New("gotrue url must be provided")
	}

	return New(cfg.GoTrue.URL, cfg.GoTrue.APIKey, cfg.GoTrue.Timeout, logger), nil
}

// New creates a client for the auth service at baseURL.
func New(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
		bus:        newEventBus(),
	}
}

var _ service.AuthClient = (*Client)(nil)

// GetSession returns the current session. An expired session reads as no session.
func (c *Client) GetSession(ctx context.Context) (*entity.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil || c.session.Expired(c.now()) {
		return nil, nil
	}

	session := *c.session

	return &session, nil
}

// OnAuthStateChange registers fn for every later change of the session.
func (c *Client) OnAuthStateChange(fn service.AuthStateChangeFunc) service.Subscription {
	return c.bus.subscribe(fn)
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*entity.Session, error) {
	var resp tokenResponse
	body := passwordGrant{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &resp); err != nil {
		return nil, errors.Wrap(err, "sign in with password")
	}

	session, err := resp.toSession(c.now())
	if err != nil {
		return nil, errors.Wrap(err, "decode session")
	}

	c.setSession(entity.AuthEventSignedIn, session)
	c.logger.Info("Signed in", slog.String("user_id", session.User.ID.String()))

	return session, nil
}

// SetAccessToken adopts an access token obtained elsewhere. The token is checked
// against the auth service before it becomes the current session.
func (c *Client) SetAccessToken(ctx context.Context, accessToken string, expiresAt time.Time) (*entity.Session, error) {
	var user userJSON
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return nil, errors.Wrap(err, "load user for access token")
	}

	identity, err := user.toIdentity()
	if err != nil {
		return nil, errors.Wrap(err, "decode user")
	}

	session := &entity.Session{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        identity,
	}
	c.setSession(entity.AuthEventInitialSession, session)

	return session, nil
}

// RefreshUser reloads the signed-in user's record and emits USER_UPDATED.
func (c *Client) RefreshUser(ctx context.Context) (*entity.Identity, error) {
	current, err := c.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNoSession
	}

	var user userJSON
	if err := c.do(ctx, http.MethodGet, "/user", current.AccessToken, nil, &user); err != nil {
		return nil, errors.Wrap(err, "load user")
	}

	identity, err := user.toIdentity()
	if err != nil {
		return nil, errors.Wrap(err, "decode user")
	}

	updated := *current
	updated.User = identity
	c.setSession(entity.AuthEventUserUpdated, &updated)

	return identity, nil
}

// SignOut ends the session with the auth service and clears it locally.
// The local session is cleared even when the remote call fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.RLock()
	current := c.session
	c.mu.RUnlock()

	if current == nil {
		return nil
	}

	remoteErr := c.do(ctx, http.MethodPost, "/logout", current.AccessToken, nil, nil)
	c.setSession(entity.AuthEventSignedOut, nil)

	if remoteErr != nil {
		var apiErr *APIError
		// An already revoked token means the session is gone anyway.
		if errors.As(remoteErr, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil
		}

		return errors.Wrap(remoteErr, "sign out")
	}

	return nil
}

// setSession stores session and broadcasts it. Subscribers must not change the
// session from inside their callback.
func (c *Client) setSession(event entity.AuthEvent, session *entity.Session) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	c.bus.publish(event, session)
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.WithStack(err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if len(raw) > 0 && json.Unmarshal(raw, apiErr) != nil {
			apiErr.Message = strings.TrimSpace(string(raw))
		}

		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode auth service response")
	}

	return nil
}
