package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"tasker/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenVerifier(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	verifier, err := NewTokenVerifier(context.Background(), newTestConfig(), logger)
	require.NoError(t, err)
	assert.IsType(t, &jwtVerifier{}, verifier)

	_, err = NewTokenVerifier(context.Background(), &config.Config{Auth: &config.AuthConfig{Provider: "ldap"}}, logger)
	assert.Error(t, err)

	_, err = NewTokenVerifier(context.Background(), &config.Config{Auth: &config.AuthConfig{Provider: ProviderFirebase}}, logger)
	assert.Error(t, err)

	_, err = NewTokenVerifier(context.Background(), &config.Config{Auth: &config.AuthConfig{Provider: ProviderGoogle}}, logger)
	assert.Error(t, err)

	verifier, err = NewTokenVerifier(context.Background(), &config.Config{
		Auth: &config.AuthConfig{Provider: ProviderGoogle, Audience: "client.apps.googleusercontent.com"},
	}, logger)
	require.NoError(t, err)
	assert.NotNil(t, verifier)
}
