package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/reservo/booking-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// errorMapping binds a domain sentinel to an HTTP status. detailed mappings
// render the full wrapped message, the rest render the sentinel text.
type errorMapping struct {
	target   error
	status   int
	detailed bool
}

var errorMappings = []errorMapping{
	{domain.ErrBookingNotFound, http.StatusNotFound, false},
	{domain.ErrResourceNotFound, http.StatusNotFound, false},
	{domain.ErrUserNotFound, http.StatusNotFound, false},
	{domain.ErrForbidden, http.StatusForbidden, false},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, false},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, false},
	{domain.ErrInvalidRange, http.StatusBadRequest, true},
	{domain.ErrInvalidInput, http.StatusBadRequest, true},
	{domain.ErrCancellationWindowClosed, http.StatusBadRequest, false},
	{domain.ErrOutsideAvailability, http.StatusBadRequest, false},
	{domain.ErrUserExists, http.StatusBadRequest, false},
	{domain.ErrInvalidTransition, http.StatusUnprocessableEntity, true},
	{domain.ErrBookingOverlap, http.StatusConflict, false},
	{domain.ErrRequestInProgress, http.StatusConflict, false},
	{domain.ErrIdempotencyMismatch, http.StatusConflict, false},
	{domain.ErrResourceBusy, http.StatusConflict, false},
	{domain.ErrResourceExists, http.StatusConflict, false},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, rate limiter, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.detailed {
				return m.status, err.Error()
			}
			return m.status, m.target.Error()
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
