package handler

import (
	"time"

	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/ports"
)

type resourceRequest struct {
	Name     string      `json:"name" validate:"required"`
	Type     string      `json:"type" validate:"required,oneof=room service"`
	Capacity int         `json:"capacity" validate:"gte=0"`
	Duration int         `json:"duration" validate:"gte=0"`
	Slots    []time.Time `json:"slots"`
}

type createResourcesRequest struct {
	Resources []resourceRequest `json:"resources" validate:"required,min=1,dive"`
}

type availabilityRequest struct {
	OpenHour      int         `json:"openHour" validate:"gte=0,lte=23"`
	CloseHour     int         `json:"closeHour" validate:"gte=0,lte=24"`
	BlackoutDates []string    `json:"blackoutDates"`
	Slots         []time.Time `json:"slots"`
}

type createResourcesResponse struct {
	Message  string             `json:"message"`
	Inserted []*domain.Resource `json:"inserted"`
	Skipped  []string           `json:"skipped"`
}

func toResourceInputs(reqs []resourceRequest) []ports.ResourceInput {
	out := make([]ports.ResourceInput, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, ports.ResourceInput{
			Name:     r.Name,
			Type:     r.Type,
			Capacity: r.Capacity,
			Duration: r.Duration,
			Slots:    r.Slots,
		})
	}
	return out
}
