package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/ports"
)

type ResourceService struct {
	repo ports.ResourceRepository
	log  zerolog.Logger
}

func NewResourceService(repo ports.ResourceRepository, log zerolog.Logger) *ResourceService {
	return &ResourceService{repo: repo, log: log}
}

// List returns all resources, seeding the default catalogue into an empty store.
func (s *ResourceService) List(ctx context.Context) ([]*domain.Resource, error) {
	resources, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	if len(resources) > 0 {
		return resources, nil
	}

	now := time.Now().UTC()
	for _, def := range domain.DefaultResources() {
		r := def
		r.CreatedAt, r.UpdatedAt = now, now
		// a concurrent List may have seeded the same names already
		if err := s.repo.Create(ctx, &r); err != nil && !errors.Is(err, domain.ErrResourceExists) {
			return nil, fmt.Errorf("seed resources: %w", err)
		}
	}
	s.log.Info().Int("count", len(domain.DefaultResources())).Msg("seeded default resources")

	return s.repo.List(ctx)
}

func (s *ResourceService) Get(ctx context.Context, id string) (*domain.Resource, error) {
	if id == "" {
		return nil, domain.ErrResourceNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// CreateBatch inserts every input whose name is not taken yet. Existing names
// are reported in Skipped; the batch is rejected as a whole only on invalid input.
func (s *ResourceService) CreateBatch(ctx context.Context, inputs []ports.ResourceInput) (*ports.CreateResourcesResult, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one resource is required", domain.ErrInvalidInput)
	}
	for i, in := range inputs {
		if err := validateResourceInput(in); err != nil {
			return nil, fmt.Errorf("resource %d: %w", i, err)
		}
	}

	result := &ports.CreateResourcesResult{Inserted: []*domain.Resource{}, Skipped: []string{}}
	now := time.Now().UTC()
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)

		_, err := s.repo.FindByName(ctx, name)
		if err == nil {
			result.Skipped = append(result.Skipped, name)
			continue
		}
		if !errors.Is(err, domain.ErrResourceNotFound) {
			return nil, fmt.Errorf("create resources: %w", err)
		}

		r := &domain.Resource{
			Name:      name,
			Type:      domain.ResourceType(in.Type),
			Capacity:  in.Capacity,
			Duration:  in.Duration,
			Slots:     in.Slots,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Create(ctx, r); err != nil {
			if errors.Is(err, domain.ErrResourceExists) {
				result.Skipped = append(result.Skipped, name)
				continue
			}
			return nil, fmt.Errorf("create resources: %w", err)
		}
		result.Inserted = append(result.Inserted, r)
	}

	s.log.Info().Int("inserted", len(result.Inserted)).Int("skipped", len(result.Skipped)).Msg("resources created")
	return result, nil
}

func (s *ResourceService) SetAvailability(ctx context.Context, id string, in ports.AvailabilityInput) (*domain.Resource, error) {
	if in.OpenHour < 0 || in.OpenHour > 23 || in.CloseHour < 0 || in.CloseHour > 24 {
		return nil, fmt.Errorf("%w: hours must be within 0-24", domain.ErrInvalidInput)
	}
	if in.CloseHour != 0 && in.CloseHour <= in.OpenHour {
		return nil, fmt.Errorf("%w: close hour must be after open hour", domain.ErrInvalidInput)
	}
	for _, d := range in.BlackoutDates {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return nil, fmt.Errorf("%w: blackout date %q is not YYYY-MM-DD", domain.ErrInvalidInput, d)
		}
	}

	a := domain.Availability{OpenHour: in.OpenHour, CloseHour: in.CloseHour, BlackoutDates: in.BlackoutDates}
	r, err := s.repo.UpdateAvailability(ctx, id, a, in.Slots)
	if err != nil {
		return nil, fmt.Errorf("set availability: %w", err)
	}

	s.log.Info().Str("resource_id", id).Int("open_hour", a.OpenHour).Int("close_hour", a.CloseHour).Msg("availability updated")
	return r, nil
}

func validateResourceInput(in ports.ResourceInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	switch domain.ResourceType(in.Type) {
	case domain.ResourceRoom, domain.ResourceService:
	default:
		return fmt.Errorf("%w: type must be room or service", domain.ErrInvalidInput)
	}
	if in.Capacity < 0 || in.Duration < 0 {
		return fmt.Errorf("%w: capacity and duration must not be negative", domain.ErrInvalidInput)
	}
	return nil
}
