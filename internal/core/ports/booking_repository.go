package ports

import (
	"context"
	"time"

	"github.com/reservo/booking-system/internal/core/domain"
)

// BookingFilter carries query parameters for listing bookings.
type BookingFilter struct {
	UserID      string               // empty = all users (admin)
	Status      domain.BookingStatus // optional
	StartsAfter time.Time            // optional: start_time >= StartsAfter
}

// BookingRepository defines persistence operations for bookings.
// Every write is a single-document operation.
type BookingRepository interface {
	// Create inserts b and fills in its ID.
	Create(ctx context.Context, b *domain.Booking) error
	FindByID(ctx context.Context, id string) (*domain.Booking, error)
	// UpdateStatus moves the booking from one status to another only if it is
	// still in from. It returns ErrBookingNotFound when the id is unknown and
	// ErrInvalidTransition when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus, at time.Time) (*domain.Booking, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter BookingFilter) ([]*domain.Booking, error)
	// FindOverlapping returns non-canceled bookings of the resource intersecting [start, end).
	FindOverlapping(ctx context.Context, resourceID string, start, end time.Time) ([]*domain.Booking, error)
}

// BookingEventRepository persists the audit trail of status changes.
type BookingEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.BookingEvent) error
}
