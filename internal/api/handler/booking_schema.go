package handler

import (
	"time"

	"github.com/reservo/booking-system/internal/core/domain"
)

// --- Request types ---

type createBookingRequest struct {
	ResourceID string    `json:"resourceId" validate:"required"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
}

// adminCreateBookingRequest books on behalf of a user identified by id or email.
type adminCreateBookingRequest struct {
	ResourceID string    `json:"resourceId" validate:"required"`
	UserID     string    `json:"userId" validate:"required_without=UserEmail"`
	UserEmail  string    `json:"userEmail" validate:"omitempty,email"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
}

type bookingActionRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

type bookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed canceled"`
}

// --- Response types ---

type bookingResourceRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type bookingResponse struct {
	ID        string             `json:"id"`
	Resource  bookingResourceRef `json:"resource"`
	UserID    string             `json:"user"`
	StartTime string             `json:"start_time"`
	EndTime   string             `json:"end_time"`
	Status    string             `json:"status"`
	CreatedBy string             `json:"created_by"`
	CreatedAt string             `json:"created_at"`
	UpdatedAt string             `json:"updated_at"`
}

type bookingEnvelope struct {
	Message string          `json:"message,omitempty"`
	Booking bookingResponse `json:"booking"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:        b.ID,
		Resource:  bookingResourceRef{ID: b.ResourceID, Name: b.ResourceName},
		UserID:    b.UserID,
		StartTime: b.StartTime.UTC().Format(time.RFC3339),
		EndTime:   b.EndTime.UTC().Format(time.RFC3339),
		Status:    string(b.Status),
		CreatedBy: string(b.CreatedBy),
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toBookingResponses(bs []*domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookingResponse(b))
	}
	return out
}
