package service

import (
	"context"

	"tasker/internal/domain/entity"
)

// TokenVerifier checks an access token issued by the auth service and returns
// the identity it was issued to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*entity.Identity, error)
}
