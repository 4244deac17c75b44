package ports

import (
	"context"

	"github.com/reservo/booking-system/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// VerifyEmail consumes a verification token. alreadyVerified is true when the
	// account had been verified before this call.
	VerifyEmail(ctx context.Context, token string) (alreadyVerified bool, err error)
}
