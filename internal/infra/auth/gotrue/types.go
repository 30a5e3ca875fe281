package gotrue

import (
	"fmt"
	"time"

	"tasker/internal/domain/entity"

	"github.com/google/uuid"
)

// tokenResponse is the body returned by the token endpoint.
type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         userJSON `json:"user"`
}

type userJSON struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type passwordGrant struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// APIError is a non-2xx answer from the auth service.
type APIError struct {
	Status  int
	Code    string `json:"error"`
	Message string `json:"error_description"`
	Msg     string `json:"msg"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Msg
	}
	if e.Code != "" {
		return fmt.Sprintf("auth service returned %d (%s): %s", e.Status, e.Code, msg)
	}

	return fmt.Sprintf("auth service returned %d: %s", e.Status, msg)
}

func (u userJSON) toIdentity() (*entity.Identity, error) {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", u.ID, err)
	}

	return &entity.Identity{
		ID:       id,
		Email:    u.Email,
		Role:     u.Role,
		Metadata: u.UserMetadata,
	}, nil
}

func (r *tokenResponse) toSession(now time.Time) (*entity.Session, error) {
	user, err := r.User.toIdentity()
	if err != nil {
		return nil, err
	}

	var expiresAt time.Time
	switch {
	case r.ExpiresAt > 0:
		expiresAt = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		expiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}

	return &entity.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}
