package domain

import "time"

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCanceled  BookingStatus = "canceled"
)

// validTransitions defines the allowed state machine transitions.
// canceled is terminal and nothing returns to pending.
var validTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCanceled},
	BookingConfirmed: {BookingCanceled},
}

// ParseBookingStatus validates a status string.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch st := BookingStatus(s); st {
	case BookingPending, BookingConfirmed, BookingCanceled:
		return st, true
	}
	return "", false
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// EntryPoint identifies who created a booking, which determines its initial status.
type EntryPoint string

const (
	EntryCustomer EntryPoint = "customer"
	EntryAdmin    EntryPoint = "admin"
)

// Booking is a reservation of a Resource by a User for [StartTime, EndTime).
type Booking struct {
	ID           string        `json:"id"`
	ResourceID   string        `json:"resource_id"`
	ResourceName string        `json:"resource_name,omitempty"`
	UserID       string        `json:"user_id"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Status       BookingStatus `json:"status"`
	CreatedBy    EntryPoint    `json:"created_by"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Overlaps reports whether b occupies any instant of [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}

// BookingAction classifies an audit record.
type BookingAction string

const (
	ActionCreated       BookingAction = "created"
	ActionStatusChanged BookingAction = "status_changed"
	ActionDeleted       BookingAction = "deleted"
)

// BookingEvent is an audit record of a creation, status change or deletion.
type BookingEvent struct {
	BookingID string
	Action    BookingAction
	From      BookingStatus // empty on creation
	To        BookingStatus // empty on deletion
	ActorID   string
	ActorRole string
	At        time.Time
}
