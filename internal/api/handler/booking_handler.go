package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/ports"
)

const headerIdempotencyKey = "Idempotency-Key"

// BookingHandler handles HTTP requests for the booking lifecycle. Domain
// errors are returned as-is and mapped by the central error handler.
type BookingHandler struct {
	service ports.BookingService
}

func NewBookingHandler(service ports.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// List handles GET /bookings.
//
// @Summary      List bookings
// @Description  Admins see every booking and may filter by status and user email; customers see their own.
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        status      query     string  false  "pending, confirmed or canceled"
// @Param        user_email  query     string  false  "Filter by owner email (admin only)"
// @Success      200         {array}   bookingResponse
// @Failure      400         {object}  errorResponse
// @Failure      401         {object}  errorResponse
// @Router       /bookings [get]
func (h *BookingHandler) List(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	bookings, err := h.service.List(c.Request().Context(), ports.ListBookingsInput{
		Identity:  who,
		Status:    c.QueryParam("status"),
		UserEmail: c.QueryParam("user_email"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponses(bookings))
}

// Upcoming handles GET /bookings/my.
//
// @Summary      List the caller's upcoming bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   bookingResponse
// @Failure      401  {object}  errorResponse
// @Router       /bookings/my [get]
func (h *BookingHandler) Upcoming(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	bookings, err := h.service.ListUpcoming(c.Request().Context(), who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponses(bookings))
}

// Get handles GET /bookings/:id.
//
// @Summary      Get a booking
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Booking id"
// @Success      200  {object}  bookingResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /bookings/{id} [get]
func (h *BookingHandler) Get(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	b, err := h.service.Get(c.Request().Context(), c.Param("id"), who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Create handles POST /bookings for the authenticated customer.
//
// @Summary      Create a booking
// @Description  The booking starts pending. A repeated Idempotency-Key returns the original booking.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                false  "Client-generated key for safe retries"
// @Param        body             body      createBookingRequest  true   "Booking"
// @Success      201              {object}  bookingEnvelope
// @Failure      400              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Router       /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	b, err := h.service.Create(c.Request().Context(), ports.CreateBookingInput{
		ResourceID:     req.ResourceID,
		UserID:         who.SubjectID,
		Start:          req.StartTime,
		End:            req.EndTime,
		EntryPoint:     domain.EntryCustomer,
		Actor:          who,
		IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, bookingEnvelope{Message: "booking created", Booking: toBookingResponse(b)})
}

// CreateForUser handles POST /bookings/admin.
//
// @Summary      Create a booking on behalf of a user
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                     false  "Client-generated key for safe retries"
// @Param        body             body      adminCreateBookingRequest  true   "Booking"
// @Success      201              {object}  bookingEnvelope
// @Failure      400              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Router       /bookings/admin [post]
func (h *BookingHandler) CreateForUser(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req adminCreateBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	b, err := h.service.Create(c.Request().Context(), ports.CreateBookingInput{
		ResourceID:     req.ResourceID,
		UserID:         req.UserID,
		UserEmail:      req.UserEmail,
		Start:          req.StartTime,
		End:            req.EndTime,
		EntryPoint:     domain.EntryAdmin,
		Actor:          who,
		IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, bookingEnvelope{Message: "booking created", Booking: toBookingResponse(b)})
}

// Decide handles PATCH /bookings/:id with {"action": "approve"|"reject"}.
//
// @Summary      Approve or reject a booking
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Booking id"
// @Param        body  body      bookingActionRequest  true  "Action"
// @Success      200   {object}  bookingEnvelope
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /bookings/{id} [patch]
func (h *BookingHandler) Decide(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req bookingActionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var b *domain.Booking
	switch req.Action {
	case "approve":
		b, err = h.service.Approve(c.Request().Context(), c.Param("id"), who)
	default:
		b, err = h.service.Reject(c.Request().Context(), c.Param("id"), who)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bookingEnvelope{Message: "booking " + string(b.Status), Booking: toBookingResponse(b)})
}

// SetStatus handles PUT /bookings/:id.
//
// @Summary      Overwrite a booking status
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Booking id"
// @Param        body  body      bookingStatusRequest  true  "Target status"
// @Success      200   {object}  bookingEnvelope
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /bookings/{id} [put]
func (h *BookingHandler) SetStatus(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req bookingStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	b, err := h.service.SetStatus(c.Request().Context(), c.Param("id"), req.Status, who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bookingEnvelope{Message: "booking updated", Booking: toBookingResponse(b)})
}

// Cancel handles PATCH /bookings/:id/cancel.
//
// @Summary      Cancel a booking
// @Description  Customers may cancel their own bookings until the cancellation cutoff before start.
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Booking id"
// @Success      200  {object}  bookingEnvelope
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /bookings/{id}/cancel [patch]
func (h *BookingHandler) Cancel(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	b, err := h.service.Cancel(c.Request().Context(), c.Param("id"), who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bookingEnvelope{Message: "booking canceled", Booking: toBookingResponse(b)})
}

// Delete handles DELETE /bookings/:id.
//
// @Summary      Delete a booking
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Booking id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /bookings/{id} [delete]
func (h *BookingHandler) Delete(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), c.Param("id"), who); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "booking deleted"})
}
