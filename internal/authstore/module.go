package authstore

import (
	"context"
	"log/slog"

	"tasker/config"
	"tasker/internal/domain/service"

	"go.uber.org/fx"
)

// Module provides a *Store bound to the fx lifecycle. It expects a service.AuthClient
// to be provided elsewhere in the graph.
var Module = fx.Options(
	fx.Provide(NewLifecycleStore),
)

type LifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Client    service.AuthClient
	Logger    *slog.Logger
}

// NewLifecycleStore builds the store from config and ties Initialize and Teardown to
// the application start and stop hooks. Background work of the effect and background
// strategies lives in a scope that ends on stop, not with the start context.
func NewLifecycleStore(params LifecycleParams) (*Store, error) {
	logger := params.Logger.With(slog.String("component", "authstore"))

	store, err := NewFromConfig(params.Config, params.Client, logger)
	if err != nil {
		return nil, err
	}

	scope, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			initCtx := scope
			if store.Strategy().AwaitsInitialFetch() {
				initCtx = ctx
			}
			if _, err := store.Initialize(initCtx); err != nil {
				cancel()

				return err
			}

			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			store.Teardown()

			return nil
		},
	})

	return store, nil
}
