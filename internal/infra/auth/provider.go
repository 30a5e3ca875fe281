package auth

import (
	"context"
	"fmt"
	"log/slog"

	"tasker/config"
	"tasker/internal/domain/service"
	authfirebase "tasker/internal/infra/auth/firebase"
	authgoogle "tasker/internal/infra/auth/google"
)

const (
	ProviderJWT      = "jwt"
	ProviderFirebase = "firebase"
	ProviderGoogle   = "google"
)

// NewTokenVerifier selects the TokenVerifier named by auth.provider.
func NewTokenVerifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.TokenVerifier, error) {
	provider := ProviderJWT
	if cfg.Auth != nil && cfg.Auth.Provider != "" {
		provider = cfg.Auth.Provider
	}

	logger.Info("Configuring access token verification", slog.String("provider", provider))

	switch provider {
	case ProviderJWT:
		return NewJWTVerifier(cfg)
	case ProviderFirebase:
		return authfirebase.NewVerifier(ctx, cfg)
	case ProviderGoogle:
		return authgoogle.NewVerifier(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown auth provider: %s", provider)
	}
}
