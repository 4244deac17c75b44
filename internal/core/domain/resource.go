package domain

import "time"

// ResourceType distinguishes rooms (capacity-bound) from services (duration-bound).
type ResourceType string

const (
	ResourceRoom    ResourceType = "room"
	ResourceService ResourceType = "service"
)

// Availability is the admin-configured booking window of a resource.
// A zero OpenHour/CloseHour pair means the resource is bookable around the clock.
type Availability struct {
	OpenHour      int      `json:"open_hour" bson:"open_hour"`
	CloseHour     int      `json:"close_hour" bson:"close_hour"`
	BlackoutDates []string `json:"blackout_dates,omitempty" bson:"blackout_dates,omitempty"` // YYYY-MM-DD, UTC
}

// Configured reports whether any restriction is in place.
func (a Availability) Configured() bool {
	return a.OpenHour != 0 || a.CloseHour != 0 || len(a.BlackoutDates) > 0
}

// Permits reports whether [start, end) lies inside the configured window.
// Hours are evaluated in UTC; a CloseHour of 0 or 24 means midnight.
func (a Availability) Permits(start, end time.Time) bool {
	start, end = start.UTC(), end.UTC()
	for _, d := range a.BlackoutDates {
		dayStart, err := time.Parse(time.DateOnly, d)
		if err != nil {
			continue
		}
		if start.Before(dayStart.AddDate(0, 0, 1)) && end.After(dayStart) {
			return false
		}
	}
	if a.OpenHour == 0 && a.CloseHour == 0 {
		return true
	}

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	open := day.Add(time.Duration(a.OpenHour) * time.Hour)
	closeHour := a.CloseHour
	if closeHour == 0 {
		closeHour = 24
	}
	closing := day.Add(time.Duration(closeHour) * time.Hour)
	return !start.Before(open) && !end.After(closing)
}

// Resource is a bookable room or service.
type Resource struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         ResourceType `json:"type"`
	Capacity     int          `json:"capacity,omitempty"`
	Duration     int          `json:"duration,omitempty"` // minutes
	Slots        []time.Time  `json:"slots"`
	Availability Availability `json:"availability"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// DefaultResources is the catalogue seeded into an empty store.
func DefaultResources() []Resource {
	return []Resource{
		{Name: "Conference Room A", Type: ResourceRoom, Capacity: 20},
		{Name: "Conference Room B", Type: ResourceRoom, Capacity: 10},
		{Name: "Private Office", Type: ResourceRoom, Capacity: 5},
		{Name: "Projector Service", Type: ResourceService, Duration: 60},
		{Name: "Catering Service", Type: ResourceService, Duration: 120},
	}
}
