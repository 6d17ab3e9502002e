package repository

import (
	"context"
	"errors"

	"github.com/travelgo/travelgo/internal/domain/entity"
)

// ErrUserNotFound is returned when no matching active user exists.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the persistence operations for users. Lookups only
// return active users; the IncludingInactive variant is the explicit opt-out.
// Implementations run the entity's credential lifecycle before every persist.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByEmailIncludingInactive(ctx context.Context, email string) (*entity.User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Deactivate(ctx context.Context, id string) error
}
