// Package google verifies Google-issued OIDC ID tokens.
package google

import (
	"context"
	"log/slog"
	"strings"

	"tasker/config"
	"tasker/internal/domain/entity"
	"tasker/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"google.golang.org/api/idtoken"
)

// subNamespace derives stable identity IDs from Google subject IDs, which are not UUIDs.
var subNamespace = uuid.MustParse("0c8f6a1e-7b52-4c1d-8e0a-5d2b9f3c6a47")

// ValidateFunc checks signature, expiry and audience of an ID token.
type ValidateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type googleVerifier struct {
	clientID string
	validate ValidateFunc
	logger   *slog.Logger
}

// NewVerifier creates a TokenVerifier for ID tokens issued to the configured client ID
// (auth.audience).
func NewVerifier(cfg *config.Config, logger *slog.Logger) (service.TokenVerifier, error) {
	return newVerifier(cfg, logger, idtoken.Validate)
}

func newVerifier(cfg *config.Config, logger *slog.Logger, validate ValidateFunc) (service.TokenVerifier, error) {
	if cfg.Auth == nil || strings.TrimSpace(cfg.Auth.Audience) == "" {
		return nil, errors.New("auth.audience must name the Google client ID")
	}

	return &googleVerifier{
		clientID: cfg.Auth.Audience,
		validate: validate,
		logger:   logger,
	}, nil
}

// Verify validates the ID token and maps its claims to an identity.
func (v *googleVerifier) Verify(ctx context.Context, idToken string) (*entity.Identity, error) {
	payload, err := v.validate(ctx, idToken, v.clientID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid ID token")
	}

	if err := verifyClaims(payload); err != nil {
		v.logger.DebugContext(ctx, "Google ID token rejected", slog.Any("error", err))

		return nil, errors.Wrap(err, "token verification failed")
	}

	return identityFromPayload(payload), nil
}

func verifyClaims(payload *idtoken.Payload) error {
	if payload.Issuer != "https://accounts.google.com" && payload.Issuer != "accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if verified, _ := payload.Claims["email_verified"].(bool); !verified {
		return errors.New("email not verified")
	}

	return nil
}

func identityFromPayload(payload *idtoken.Payload) *entity.Identity {
	identity := &entity.Identity{
		ID:       uuid.NewSHA1(subNamespace, []byte(payload.Subject)),
		Role:     "authenticated",
		Metadata: map[string]any{"google_sub": payload.Subject},
	}

	if email, ok := payload.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		identity.Metadata["display_name"] = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		identity.Metadata["avatar_url"] = picture
	}

	return identity
}
