package authstore

import (
	"log/slog"

	"tasker/config"
	"tasker/internal/domain/service"
)

// NewFromConfig builds a store whose strategy comes from the authStore config section.
func NewFromConfig(cfg *config.Config, client service.AuthClient, logger *slog.Logger) (*Store, error) {
	var value string
	if cfg != nil && cfg.AuthStore != nil {
		value = cfg.AuthStore.Strategy
	}

	strategy, err := ParseStrategy(value)
	if err != nil {
		return nil, err
	}

	return New(client, WithStrategy(strategy), WithLogger(logger)), nil
}
