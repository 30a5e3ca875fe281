package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"auth": map[string]any{
			"jwtSecret": "",
		},
		"authStore": map[string]any{
			"strategy": "eager",
		},
		"gotrue": map[string]any{
			"apiKey": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "AUTH_JWTSECRET", want: "auth.jwtSecret"},
		{envKey: "AUTHSTORE_STRATEGY", want: "authStore.strategy"},
		{envKey: "GOTRUE_APIKEY", want: "gotrue.apiKey"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func TestApplyDefaults_FillsMissingSections(t *testing.T) {
	cfg := &Config{}

	applyDefaults(cfg)

	require.NotNil(t, cfg.Auth)
	require.NotNil(t, cfg.AuthStore)
	require.NotNil(t, cfg.Tasks)
	assert.Equal(t, defaultMaxRequestBodySize, cfg.HTTP.MaxRequestBodySize)
	assert.Equal(t, "jwt", cfg.Auth.Provider)
	assert.Equal(t, "eager", cfg.AuthStore.Strategy)
	assert.Equal(t, defaultMaxTextLength, cfg.Tasks.MaxTextLength)
	assert.Equal(t, defaultMaxDepth, cfg.Tasks.MaxDepth)
	assert.Equal(t, defaultListLimit, cfg.Tasks.ListLimit)
	require.NotNil(t, cfg.Worker)
	assert.Equal(t, defaultWorkerPort, cfg.Worker.Port)
	require.NotNil(t, cfg.QueryLog)
	assert.Equal(t, defaultSlowQueryThreshold, cfg.QueryLog.SlowThreshold)
	assert.Equal(t, defaultMaxLoggedSQL, cfg.QueryLog.MaxSQLLength)
}

func TestApplyDefaults_KeepsConfiguredValues(t *testing.T) {
	cfg := &Config{
		Auth:      &AuthConfig{Provider: "firebase"},
		AuthStore: &AuthStoreConfig{Strategy: "background"},
		Tasks:     &TasksConfig{MaxTextLength: 10, MaxDepth: 2, ListLimit: 5},
		QueryLog:  &QueryLogConfig{SlowThreshold: -1, MaxSQLLength: 64},
	}
	cfg.HTTP.MaxRequestBodySize = "1MB"

	applyDefaults(cfg)

	assert.Equal(t, "1MB", cfg.HTTP.MaxRequestBodySize)
	assert.Equal(t, "firebase", cfg.Auth.Provider)
	assert.Equal(t, "background", cfg.AuthStore.Strategy)
	assert.Equal(t, 10, cfg.Tasks.MaxTextLength)
	assert.Equal(t, 2, cfg.Tasks.MaxDepth)
	assert.Equal(t, 5, cfg.Tasks.ListLimit)
	assert.Equal(t, time.Duration(-1), cfg.QueryLog.SlowThreshold)
	assert.Equal(t, 64, cfg.QueryLog.MaxSQLLength)
}
