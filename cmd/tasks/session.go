package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"tasker/config"
	"tasker/internal/authstore"
	"tasker/internal/domain/entity"
	"tasker/internal/domain/service"
	"tasker/internal/infra/auth/gotrue"
	logs "tasker/internal/infra/log"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const adoptedTokenLifetime = time.Hour

var errNoCredentials = errors.New("not signed in: pass --email and --password, or --token")

// cliSession is the signed-in state of one command invocation.
type cliSession struct {
	app        *fx.App
	store      *authstore.Store
	client     *gotrue.Client
	logger     *slog.Logger
	signedInBy string
}

func asAuthClient(client *gotrue.Client) service.AuthClient {
	return client
}

// openSession starts the auth store, waits until it has resolved the initial state
// and signs in with the given credentials.
func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts *rootOptions) (*cliSession, error) {
	session := &cliSession{logger: logger}

	session.app = fx.New(
		fx.NopLogger,
		fx.Supply(cfg, logger),
		fx.Provide(
			gotrue.NewClient,
			asAuthClient,
		),
		authstore.Module,
		fx.Populate(&session.store, &session.client),
	)
	if err := session.app.Err(); err != nil {
		return nil, errors.Wrap(err, "build auth store")
	}

	if err := session.app.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "start auth store")
	}

	state, err := session.store.WaitResolved(ctx)
	if err != nil {
		session.close(ctx)

		return nil, err
	}
	if state.Phase == entity.AuthPhaseErrored {
		logger.Warn("Initial session lookup failed", slog.Any("error", state.Err))
	}

	if err := session.signIn(ctx, opts); err != nil {
		session.close(ctx)

		return nil, err
	}

	return session, nil
}

func (s *cliSession) signIn(ctx context.Context, opts *rootOptions) error {
	if s.store.User() != nil {
		return nil
	}

	switch {
	case strings.TrimSpace(opts.accessToken) != "":
		if _, err := s.client.SetAccessToken(ctx, opts.accessToken, time.Now().Add(adoptedTokenLifetime)); err != nil {
			return err
		}
		s.signedInBy = "token"
	case opts.email != "" && opts.password != "":
		if _, err := s.client.SignInWithPassword(ctx, opts.email, opts.password); err != nil {
			return err
		}
		s.signedInBy = "password"
	default:
		return errNoCredentials
	}

	if s.store.User() == nil {
		return errNoCredentials
	}

	return nil
}

// accessToken returns the token of the current session.
func (s *cliSession) accessToken(ctx context.Context) (string, error) {
	current, err := s.client.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", errNoCredentials
	}

	return current.AccessToken, nil
}

// close ends a password session it started and stops the auth store.
func (s *cliSession) close(ctx context.Context) {
	if s.signedInBy == "password" {
		if err := s.client.SignOut(ctx); err != nil {
			s.logger.Warn("Sign out failed", slog.Any("error", err))
		}
	}

	if err := s.app.Stop(ctx); err != nil {
		s.logger.Warn("Stopping auth store failed", slog.Any("error", err))
	}
}

// newCLILogger writes logs to stderr so stdout stays usable for output.
func newCLILogger(cfg *config.Config) (*slog.Logger, error) {
	return logs.NewWithWriter(cfg, os.Stderr)
}
