package ports

import (
	"context"
	"time"

	"github.com/reservo/booking-system/internal/core/domain"
)

// ResourceInput carries the fields of a resource to create.
type ResourceInput struct {
	Name     string
	Type     string
	Capacity int
	Duration int
	Slots    []time.Time
}

// CreateResourcesResult reports which resources were inserted and which names
// were skipped because they already existed.
type CreateResourcesResult struct {
	Inserted []*domain.Resource
	Skipped  []string
}

// AvailabilityInput is the admin availability configuration of a resource.
type AvailabilityInput struct {
	OpenHour      int
	CloseHour     int
	BlackoutDates []string
	Slots         []time.Time
}

// ResourceService defines use-case operations for resources.
type ResourceService interface {
	List(ctx context.Context) ([]*domain.Resource, error)
	Get(ctx context.Context, id string) (*domain.Resource, error)
	CreateBatch(ctx context.Context, inputs []ResourceInput) (*CreateResourcesResult, error)
	SetAvailability(ctx context.Context, id string, in AvailabilityInput) (*domain.Resource, error)
}
