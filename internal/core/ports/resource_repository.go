package ports

import (
	"context"
	"time"

	"github.com/reservo/booking-system/internal/core/domain"
)

// ResourceRepository defines persistence operations for bookable resources.
type ResourceRepository interface {
	List(ctx context.Context) ([]*domain.Resource, error)
	FindByID(ctx context.Context, id string) (*domain.Resource, error)
	FindByName(ctx context.Context, name string) (*domain.Resource, error)
	// Create inserts r and fills in its ID. Name collisions return ErrResourceExists.
	Create(ctx context.Context, r *domain.Resource) error
	UpdateAvailability(ctx context.Context, id string, a domain.Availability, slots []time.Time) (*domain.Resource, error)
}
