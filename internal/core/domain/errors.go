package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidInput       = errors.New("invalid input")
)

var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrResourceExists      = errors.New("resource already exists")
	ErrOutsideAvailability = errors.New("booking is outside the resource availability")
)

var (
	ErrBookingNotFound          = errors.New("booking not found")
	ErrInvalidRange             = errors.New("invalid time range")
	ErrCancellationWindowClosed = errors.New("too late to cancel this booking")
	ErrInvalidTransition        = errors.New("invalid status transition")
	ErrBookingOverlap           = errors.New("resource is already booked for this interval")
	ErrResourceBusy             = errors.New("resource is being booked concurrently, retry")
	ErrRequestInProgress        = errors.New("a request with this idempotency key is still in progress")
	ErrIdempotencyMismatch      = errors.New("idempotency key was already used for a different booking")
)

// ErrStartInPast is an InvalidRange failure: errors.Is(ErrStartInPast, ErrInvalidRange) holds.
var ErrStartInPast = fmt.Errorf("%w: start time is in the past", ErrInvalidRange)
