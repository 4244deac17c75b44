package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reservo/booking-system/internal/pkg/metrics"
	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/ports"
)

// IdempotencyStore remembers which booking a client Idempotency-Key produced (Redis).
type IdempotencyStore interface {
	// Reserve claims key. When reserved is false, bookingID is the booking a
	// previous request stored, or empty while that request is in flight.
	Reserve(ctx context.Context, key string) (bookingID string, reserved bool, err error)
	Complete(ctx context.Context, key, bookingID string) error
	Release(ctx context.Context, key string) error
}

// ResourceLocker serialises the overlap check and insert for one resource.
type ResourceLocker interface {
	Lock(ctx context.Context, resourceID string) (unlock func(context.Context) error, err error)
}

// BookingPolicy holds the tunable business rules.
type BookingPolicy struct {
	CancelCutoff       time.Duration
	ClockSkew          time.Duration
	AdminDefaultStatus domain.BookingStatus
	PreventOverlap     bool
}

func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{
		CancelCutoff:       2 * time.Hour,
		ClockSkew:          time.Minute,
		AdminDefaultStatus: domain.BookingConfirmed,
	}
}

// BookingDeps groups the collaborators of BookingService. Idempotency and
// Locker are optional.
type BookingDeps struct {
	Bookings    ports.BookingRepository
	Events      ports.BookingEventRepository
	Resources   ports.ResourceRepository
	Users       ports.UserRepository
	Idempotency IdempotencyStore
	Locker      ResourceLocker
	Notifier    ports.Notifier
}

type BookingService struct {
	bookings  ports.BookingRepository
	events    ports.BookingEventRepository
	resources ports.ResourceRepository
	users     ports.UserRepository
	idem      IdempotencyStore
	locker    ResourceLocker
	notifier  ports.Notifier
	policy    BookingPolicy
	log       zerolog.Logger
	now       func() time.Time
}

func NewBookingService(deps BookingDeps, policy BookingPolicy, log zerolog.Logger) *BookingService {
	if policy.AdminDefaultStatus == "" {
		policy.AdminDefaultStatus = domain.BookingConfirmed
	}
	return &BookingService{
		bookings:  deps.Bookings,
		events:    deps.Events,
		resources: deps.Resources,
		users:     deps.Users,
		idem:      deps.Idempotency,
		locker:    deps.Locker,
		notifier:  deps.Notifier,
		policy:    policy,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// Create validates and stores a new booking. A repeated IdempotencyKey from the
// same actor returns the booking created by the first request without side
// effects. Keys are scoped per actor and entry point.
func (s *BookingService) Create(ctx context.Context, in ports.CreateBookingInput) (*domain.Booking, error) {
	if in.EntryPoint == "" {
		in.EntryPoint = domain.EntryCustomer
	}
	if in.IdempotencyKey == "" || s.idem == nil {
		return s.create(ctx, in)
	}

	key := idempotencyScope(in)
	existing, reserved, err := s.reserve(ctx, key, in)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	if !reserved {
		return s.create(ctx, in)
	}

	b, err := s.create(ctx, in)
	s.settle(ctx, key, b, err)
	return b, err
}

func (s *BookingService) create(ctx context.Context, in ports.CreateBookingInput) (*domain.Booking, error) {
	if in.ResourceID == "" {
		return nil, fmt.Errorf("%w: resource is required", domain.ErrInvalidInput)
	}
	if !in.End.After(in.Start) {
		return nil, s.refuse("invalid_range", fmt.Errorf("%w: end time must be after start time", domain.ErrInvalidRange))
	}
	now := s.now()
	if in.Start.Before(now.Add(-s.policy.ClockSkew)) {
		return nil, s.refuse("start_in_past", domain.ErrStartInPast)
	}

	resource, err := s.resources.FindByID(ctx, in.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	owner, err := s.resolveOwner(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if resource.Availability.Configured() && !resource.Availability.Permits(in.Start, in.End) {
		return nil, s.refuse("outside_availability", domain.ErrOutsideAvailability)
	}

	entry := in.EntryPoint
	b := &domain.Booking{
		ResourceID:   resource.ID,
		ResourceName: resource.Name,
		UserID:       owner.ID,
		StartTime:    in.Start.UTC(),
		EndTime:      in.End.UTC(),
		Status:       s.initialStatus(entry),
		CreatedBy:    entry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if s.policy.PreventOverlap {
		err = s.createExclusive(ctx, b)
	} else {
		err = s.bookings.Create(ctx, b)
	}
	if err != nil {
		s.log.Error().Err(err).Str("resource_id", b.ResourceID).Msg("failed to create booking")
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.BookingsCreatedTotal.WithLabelValues(string(entry), string(b.Status)).Inc()
	s.recordEvent(ctx, b.ID, "", b.Status, in.Actor)
	s.notify(ports.NotifyBookingCreated, owner.Email, b)

	s.log.Info().
		Str("booking_id", b.ID).
		Str("resource_id", b.ResourceID).
		Str("user_id", b.UserID).
		Str("status", string(b.Status)).
		Str("entry_point", string(entry)).
		Msg("booking created")

	return b, nil
}

func (s *BookingService) Get(ctx context.Context, id string, who domain.Identity) (*domain.Booking, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !who.IsAdmin() && b.UserID != who.SubjectID {
		return nil, domain.ErrForbidden
	}
	return b, nil
}

// Approve confirms a pending booking.
func (s *BookingService) Approve(ctx context.Context, id string, actor domain.Identity) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.transition(ctx, "approve booking", id, domain.BookingConfirmed, actor)
}

// Reject cancels a pending or confirmed booking on behalf of an admin.
func (s *BookingService) Reject(ctx context.Context, id string, actor domain.Identity) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.transition(ctx, "reject booking", id, domain.BookingCanceled, actor)
}

// Cancel cancels a booking. Admins may always cancel; customers only their own
// bookings and only while now is strictly before start minus the cutoff.
func (s *BookingService) Cancel(ctx context.Context, id string, requester domain.Identity) (*domain.Booking, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	if !requester.IsAdmin() {
		if b.UserID != requester.SubjectID {
			return nil, domain.ErrForbidden
		}
		if !s.now().Before(b.StartTime.Add(-s.policy.CancelCutoff)) {
			return nil, s.refuse("cancellation_window_closed", domain.ErrCancellationWindowClosed)
		}
	}

	return s.apply(ctx, "cancel booking", b, domain.BookingCanceled, requester)
}

// SetStatus overwrites the status through the state machine. Setting the
// current status again is a no-op.
func (s *BookingService) SetStatus(ctx context.Context, id string, status string, actor domain.Identity) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	to, ok := domain.ParseBookingStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("set booking status: %w", err)
	}
	if b.Status == to {
		return b, nil
	}
	return s.apply(ctx, "set booking status", b, to, actor)
}

// Delete hard-removes a booking on behalf of an admin.
func (s *BookingService) Delete(ctx context.Context, id string, actor domain.Identity) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if err := s.bookings.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	s.recordEvent(ctx, id, b.Status, "", actor)
	s.log.Info().Str("booking_id", id).Str("actor_id", actor.SubjectID).Msg("booking deleted")
	return nil
}

// List returns every booking for admins (optionally filtered) and the
// caller's own bookings for customers.
func (s *BookingService) List(ctx context.Context, in ports.ListBookingsInput) ([]*domain.Booking, error) {
	var filter ports.BookingFilter

	if in.Status != "" {
		st, ok := domain.ParseBookingStatus(in.Status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, in.Status)
		}
		filter.Status = st
	}

	if in.Identity.IsAdmin() {
		if in.UserEmail != "" {
			u, err := s.users.FindByEmail(ctx, normalizeEmail(in.UserEmail))
			if errors.Is(err, domain.ErrUserNotFound) {
				return []*domain.Booking{}, nil
			}
			if err != nil {
				return nil, fmt.Errorf("list bookings: %w", err)
			}
			filter.UserID = u.ID
		}
	} else {
		filter.UserID = in.Identity.SubjectID
	}

	return s.bookings.List(ctx, filter)
}

// ListUpcoming returns the caller's bookings that start from now on.
func (s *BookingService) ListUpcoming(ctx context.Context, who domain.Identity) ([]*domain.Booking, error) {
	return s.bookings.List(ctx, ports.BookingFilter{UserID: who.SubjectID, StartsAfter: s.now()})
}

func (s *BookingService) transition(ctx context.Context, op, id string, to domain.BookingStatus, actor domain.Identity) (*domain.Booking, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.apply(ctx, op, b, to, actor)
}

// apply validates and persists current -> to. The repository only writes if
// the stored status still equals current.
func (s *BookingService) apply(ctx context.Context, op string, current *domain.Booking, to domain.BookingStatus, actor domain.Identity) (*domain.Booking, error) {
	from := current.Status
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%s: %w (from %s to %s)", op, s.refuse("invalid_transition", domain.ErrInvalidTransition), from, to)
	}

	updated, err := s.bookings.UpdateStatus(ctx, current.ID, from, to, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.BookingTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	s.recordEvent(ctx, updated.ID, from, to, actor)
	s.notifyOwner(ctx, updated)

	s.log.Info().
		Str("booking_id", updated.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("actor_id", actor.SubjectID).
		Msg("booking status changed")

	return updated, nil
}

func (s *BookingService) createExclusive(ctx context.Context, b *domain.Booking) error {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, b.ResourceID)
		if err != nil {
			return err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn().Err(err).Str("resource_id", b.ResourceID).Msg("failed to release resource lock")
			}
		}()
	}

	overlapping, err := s.bookings.FindOverlapping(ctx, b.ResourceID, b.StartTime, b.EndTime)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return s.refuse("overlap", domain.ErrBookingOverlap)
	}
	return s.bookings.Create(ctx, b)
}

// reserve claims the idempotency key. It returns the stored booking for a
// replay, reserved=true when this request owns the key, and reserved=false
// with no booking when the store is unavailable.
func (s *BookingService) reserve(ctx context.Context, key string, in ports.CreateBookingInput) (*domain.Booking, bool, error) {
	id, reserved, err := s.idem.Reserve(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotency store unavailable, creating without replay protection")
		return nil, false, nil
	}
	if reserved {
		return nil, true, nil
	}
	if id == "" {
		return nil, false, domain.ErrRequestInProgress
	}

	existing, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("idempotent replay: %w", err)
	}
	if !sameRequest(existing, in) {
		return nil, false, domain.ErrIdempotencyMismatch
	}
	s.log.Info().Str("idempotency_key", in.IdempotencyKey).Str("booking_id", existing.ID).Msg("idempotent replay")
	return existing, false, nil
}

// settle stores the created booking under key, or frees the key on failure.
func (s *BookingService) settle(ctx context.Context, key string, b *domain.Booking, createErr error) {
	ctx = context.WithoutCancel(ctx)
	if createErr != nil {
		if err := s.idem.Release(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
		}
		return
	}
	if err := s.idem.Complete(ctx, key, b.ID); err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("failed to store idempotency key")
	}
}

func idempotencyScope(in ports.CreateBookingInput) string {
	return string(in.EntryPoint) + ":" + in.Actor.SubjectID + ":" + in.IdempotencyKey
}

// sameRequest reports whether b is what in would have created.
func sameRequest(b *domain.Booking, in ports.CreateBookingInput) bool {
	if b.ResourceID != in.ResourceID || !b.StartTime.Equal(in.Start) || !b.EndTime.Equal(in.End) {
		return false
	}
	if b.CreatedBy != in.EntryPoint {
		return false
	}
	return in.UserID == "" || b.UserID == in.UserID
}

func (s *BookingService) resolveOwner(ctx context.Context, in ports.CreateBookingInput) (*domain.User, error) {
	switch {
	case in.UserID != "":
		return s.users.FindByID(ctx, in.UserID)
	case in.UserEmail != "":
		return s.users.FindByEmail(ctx, normalizeEmail(in.UserEmail))
	default:
		return nil, fmt.Errorf("%w: booking owner is required", domain.ErrInvalidInput)
	}
}

func (s *BookingService) initialStatus(entry domain.EntryPoint) domain.BookingStatus {
	if entry == domain.EntryAdmin {
		return s.policy.AdminDefaultStatus
	}
	return domain.BookingPending
}

func (s *BookingService) refuse(reason string, err error) error {
	metrics.BookingRejectionsTotal.WithLabelValues(reason).Inc()
	return err
}

// recordEvent appends to the audit trail. An empty to marks a deletion. Failures are logged, not returned.
func (s *BookingService) recordEvent(ctx context.Context, bookingID string, from, to domain.BookingStatus, actor domain.Identity) {
	if s.events == nil {
		return
	}
	action := domain.ActionStatusChanged
	switch {
	case from == "":
		action = domain.ActionCreated
	case to == "":
		action = domain.ActionDeleted
	}
	event := &domain.BookingEvent{
		BookingID: bookingID,
		Action:    action,
		From:      from,
		To:        to,
		ActorID:   actor.SubjectID,
		ActorRole: actor.Role,
		At:        s.now(),
	}
	if err := s.events.InsertEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("booking_id", bookingID).Msg("failed to insert audit event")
	}
}

func (s *BookingService) notifyOwner(ctx context.Context, b *domain.Booking) {
	var kind ports.NotificationKind
	switch b.Status {
	case domain.BookingConfirmed:
		kind = ports.NotifyBookingConfirmed
	case domain.BookingCanceled:
		kind = ports.NotifyBookingCanceled
	default:
		return
	}

	owner, err := s.users.FindByID(ctx, b.UserID)
	if err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("booking owner lookup failed, notification skipped")
		return
	}
	s.notify(kind, owner.Email, b)
}

func (s *BookingService) notify(kind ports.NotificationKind, to string, b *domain.Booking) {
	if s.notifier == nil || to == "" {
		return
	}
	s.notifier.Enqueue(ports.Notification{
		ID:   uuid.NewString(),
		Kind: kind,
		To:   to,
		Key:  b.ID,
		Data: map[string]string{
			"booking_id": b.ID,
			"resource":   b.ResourceName,
			"start":      b.StartTime.Format(time.RFC3339),
			"end":        b.EndTime.Format(time.RFC3339),
			"status":     string(b.Status),
		},
	})
}
