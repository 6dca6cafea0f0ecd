package repository

import (
	"context"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
)

type UserRepository interface {
	// Create assigns ID and timestamps. It fails with domain.ErrUsernameTaken
	// or domain.ErrEmailTaken on a duplicate.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}
