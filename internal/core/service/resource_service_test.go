package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/ports"
)

func TestResourceService_List_SeedsEmptyStore(t *testing.T) {
	repo := newStubResourceRepo()
	svc := NewResourceService(repo, zerolog.Nop())

	resources, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(resources) != len(domain.DefaultResources()) {
		t.Fatalf("expected %d seeded resources, got %d", len(domain.DefaultResources()), len(resources))
	}

	// a second call must not seed again
	resources, _ = svc.List(context.Background())
	if len(resources) != len(domain.DefaultResources()) {
		t.Fatalf("expected no additional seeding, got %d", len(resources))
	}
}

func TestResourceService_List_KeepsExisting(t *testing.T) {
	repo := newStubResourceRepo()
	_ = repo.Create(context.Background(), &domain.Resource{Name: "Lab", Type: domain.ResourceRoom})
	svc := NewResourceService(repo, zerolog.Nop())

	resources, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(resources) != 1 || resources[0].Name != "Lab" {
		t.Fatalf("unexpected resources: %+v", resources)
	}
}

func TestResourceService_CreateBatch_SkipsDuplicates(t *testing.T) {
	repo := newStubResourceRepo()
	_ = repo.Create(context.Background(), &domain.Resource{Name: "Lab", Type: domain.ResourceRoom})
	svc := NewResourceService(repo, zerolog.Nop())

	res, err := svc.CreateBatch(context.Background(), []ports.ResourceInput{
		{Name: "Lab", Type: "room"},
		{Name: "Studio", Type: "room", Capacity: 4},
		{Name: "Massage", Type: "service", Duration: 45},
	})
	if err != nil {
		t.Fatalf("CreateBatch returned error: %v", err)
	}
	if len(res.Inserted) != 2 {
		t.Errorf("expected 2 inserted, got %d", len(res.Inserted))
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "Lab" {
		t.Errorf("expected Lab to be skipped, got %v", res.Skipped)
	}
	for _, r := range res.Inserted {
		if r.ID == "" {
			t.Errorf("expected inserted resource %q to carry an id", r.Name)
		}
	}
}

func TestResourceService_CreateBatch_Validation(t *testing.T) {
	svc := NewResourceService(newStubResourceRepo(), zerolog.Nop())

	cases := map[string][]ports.ResourceInput{
		"empty batch":   nil,
		"missing name":  {{Type: "room"}},
		"unknown type":  {{Name: "X", Type: "vehicle"}},
		"negative size": {{Name: "X", Type: "room", Capacity: -1}},
	}
	for name, in := range cases {
		if _, err := svc.CreateBatch(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestResourceService_SetAvailability(t *testing.T) {
	repo := newStubResourceRepo()
	r := &domain.Resource{Name: "Lab", Type: domain.ResourceRoom}
	_ = repo.Create(context.Background(), r)
	svc := NewResourceService(repo, zerolog.Nop())

	updated, err := svc.SetAvailability(context.Background(), r.ID, ports.AvailabilityInput{
		OpenHour: 9, CloseHour: 17, BlackoutDates: []string{"2025-12-25"},
	})
	if err != nil {
		t.Fatalf("SetAvailability returned error: %v", err)
	}
	if updated.Availability.OpenHour != 9 || updated.Availability.CloseHour != 17 {
		t.Fatalf("unexpected availability: %+v", updated.Availability)
	}

	bad := []ports.AvailabilityInput{
		{OpenHour: 18, CloseHour: 9},
		{OpenHour: -1},
		{CloseHour: 25},
		{BlackoutDates: []string{"25/12/2025"}},
	}
	for _, in := range bad {
		if _, err := svc.SetAvailability(context.Background(), r.ID, in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%+v: expected ErrInvalidInput, got %v", in, err)
		}
	}

	if _, err := svc.SetAvailability(context.Background(), "missing", ports.AvailabilityInput{OpenHour: 8, CloseHour: 20}); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestResourceService_Get_NotFound(t *testing.T) {
	svc := NewResourceService(newStubResourceRepo(), zerolog.Nop())

	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}
