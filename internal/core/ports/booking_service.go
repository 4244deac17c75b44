package ports

import (
	"context"
	"time"

	"github.com/reservo/booking-system/internal/core/domain"
)

// CreateBookingInput carries all data needed to create a booking.
// Exactly one of UserID or UserEmail identifies the booking owner.
type CreateBookingInput struct {
	ResourceID     string
	UserID         string
	UserEmail      string
	Start          time.Time
	End            time.Time
	EntryPoint     domain.EntryPoint
	Actor          domain.Identity
	IdempotencyKey string
}

// ListBookingsInput carries the caller and optional admin filters.
type ListBookingsInput struct {
	Identity  domain.Identity
	Status    string
	UserEmail string
}

// BookingService is the booking lifecycle.
type BookingService interface {
	Create(ctx context.Context, in CreateBookingInput) (*domain.Booking, error)
	// Get returns the booking if who owns it or is an admin.
	Get(ctx context.Context, id string, who domain.Identity) (*domain.Booking, error)
	Approve(ctx context.Context, id string, actor domain.Identity) (*domain.Booking, error)
	Reject(ctx context.Context, id string, actor domain.Identity) (*domain.Booking, error)
	Cancel(ctx context.Context, id string, requester domain.Identity) (*domain.Booking, error)
	SetStatus(ctx context.Context, id string, status string, actor domain.Identity) (*domain.Booking, error)
	Delete(ctx context.Context, id string, actor domain.Identity) error
	List(ctx context.Context, in ListBookingsInput) ([]*domain.Booking, error)
	ListUpcoming(ctx context.Context, who domain.Identity) ([]*domain.Booking, error)
}
