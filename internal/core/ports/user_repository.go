package ports

import (
	"context"

	"github.com/reservo/booking-system/internal/core/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// MarkVerified sets the verified flag. It returns ErrUserNotFound for unknown ids.
	MarkVerified(ctx context.Context, id string) error
}
