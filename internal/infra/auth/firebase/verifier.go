// Package firebase verifies Firebase Authentication ID tokens.
package firebase

import (
	"context"
	"fmt"

	"tasker/config"
	"tasker/internal/domain/entity"
	"tasker/internal/domain/service"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// uidNamespace derives stable identity IDs from Firebase UIDs, which are not UUIDs.
var uidNamespace = uuid.MustParse("6f1c2a53-3f0e-4a3e-9a55-1f3a4f8e2b10")

// tokenVerifier is the subset of *auth.Client the verifier uses.
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type firebaseVerifier struct {
	client tokenVerifier
}

// NewVerifier creates a TokenVerifier backed by the Firebase Admin SDK.
func NewVerifier(ctx context.Context, cfg *config.Config) (service.TokenVerifier, error) {
	if cfg.Firebase == nil {
		return nil, fmt.Errorf("firebase config must be provided")
	}

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsPath))
	}

	var appCfg *firebase.Config
	if cfg.Firebase.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.Firebase.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}

	return &firebaseVerifier{client: client}, nil
}

// Verify checks the ID token with Firebase and maps it to an identity.
func (v *firebaseVerifier) Verify(ctx context.Context, idToken string) (*entity.Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	return identityFromToken(token), nil
}

func identityFromToken(token *auth.Token) *entity.Identity {
	id, err := uuid.Parse(token.UID)
	if err != nil {
		id = uuid.NewSHA1(uidNamespace, []byte(token.UID))
	}

	identity := &entity.Identity{
		ID:       id,
		Role:     "authenticated",
		Metadata: map[string]any{"firebase_uid": token.UID},
	}

	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	if role, ok := token.Claims["role"].(string); ok && role != "" {
		identity.Role = role
	}
	if name, ok := token.Claims["name"].(string); ok {
		identity.Metadata["display_name"] = name
	}

	return identity
}
