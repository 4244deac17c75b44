package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users  map[string]*domain.User // by id
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	copy := cloneUser(user)
	if copy.ID == "" {
		r.nextID++
		copy.ID = fmt.Sprintf("u%d", r.nextID)
	}
	r.users[copy.ID] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) MarkVerified(_ context.Context, id string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Verified = true
	return nil
}

type stubResourceRepo struct {
	byID      map[string]*domain.Resource
	nextID    int
	listErr   error
	createErr error
}

func newStubResourceRepo() *stubResourceRepo {
	return &stubResourceRepo{byID: make(map[string]*domain.Resource)}
}

func (r *stubResourceRepo) List(_ context.Context) ([]*domain.Resource, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*domain.Resource, 0, len(r.byID))
	for _, res := range r.byID {
		clone := *res
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubResourceRepo) FindByID(_ context.Context, id string) (*domain.Resource, error) {
	res, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	clone := *res
	return &clone, nil
}

func (r *stubResourceRepo) FindByName(_ context.Context, name string) (*domain.Resource, error) {
	for _, res := range r.byID {
		if res.Name == name {
			clone := *res
			return &clone, nil
		}
	}
	return nil, domain.ErrResourceNotFound
}

func (r *stubResourceRepo) Create(_ context.Context, res *domain.Resource) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.byID {
		if existing.Name == res.Name {
			return domain.ErrResourceExists
		}
	}
	if res.ID == "" {
		r.nextID++
		res.ID = fmt.Sprintf("r%d", r.nextID)
	}
	clone := *res
	r.byID[res.ID] = &clone
	return nil
}

func (r *stubResourceRepo) UpdateAvailability(_ context.Context, id string, a domain.Availability, slots []time.Time) (*domain.Resource, error) {
	res, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	res.Availability = a
	if slots != nil {
		res.Slots = slots
	}
	clone := *res
	return &clone, nil
}

type stubBookingRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Booking
	nextID    int
	createErr error
	creates   int
}

func newStubBookingRepo() *stubBookingRepo {
	return &stubBookingRepo{byID: make(map[string]*domain.Booking)}
}

func (r *stubBookingRepo) Create(_ context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	r.creates++
	b.ID = fmt.Sprintf("b%d", r.nextID)
	clone := *b
	r.byID[b.ID] = &clone
	return nil
}

func (r *stubBookingRepo) FindByID(_ context.Context, id string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

// UpdateStatus mirrors the conditional update of the Mongo repository.
func (r *stubBookingRepo) UpdateStatus(_ context.Context, id string, from, to domain.BookingStatus, at time.Time) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if b.Status != from {
		return nil, domain.ErrInvalidTransition
	}
	b.Status = to
	b.UpdatedAt = at
	clone := *b
	return &clone, nil
}

func (r *stubBookingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrBookingNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubBookingRepo) List(_ context.Context, f ports.BookingFilter) ([]*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Booking{}
	for _, b := range r.byID {
		if f.UserID != "" && b.UserID != f.UserID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if !f.StartsAfter.IsZero() && b.StartTime.Before(f.StartsAfter) {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *stubBookingRepo) FindOverlapping(_ context.Context, resourceID string, start, end time.Time) ([]*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Booking
	for _, b := range r.byID {
		if b.ResourceID == resourceID && b.Status != domain.BookingCanceled && b.Overlaps(start, end) {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

type stubEventRepo struct {
	insertErr error
	inserted  []*domain.BookingEvent
}

func (r *stubEventRepo) InsertEvent(_ context.Context, e *domain.BookingEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}

// ---------------------------------------------------------------------------
// Infrastructure stubs
// ---------------------------------------------------------------------------

type stubIdempotency struct {
	mu         sync.Mutex
	keys       map[string]string // "" while reserved
	reserveErr error
	released   int
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Reserve(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserveErr != nil {
		return "", false, s.reserveErr
	}
	if id, ok := s.keys[key]; ok {
		return id, false, nil
	}
	s.keys[key] = ""
	return "", true, nil
}

func (s *stubIdempotency) Complete(_ context.Context, key, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = bookingID
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	s.released++
	return nil
}

type stubLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	busy     bool
	acquired int
	released int
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: make(map[string]bool)}
}

func (l *stubLocker) Lock(_ context.Context, resourceID string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy || l.held[resourceID] {
		return nil, domain.ErrResourceBusy
	}
	l.held[resourceID] = true
	l.acquired++
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, resourceID)
		l.released++
		return nil
	}, nil
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []ports.Notification
}

func (n *stubNotifier) Enqueue(msg ports.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *stubNotifier) kinds() []ports.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ports.NotificationKind, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Kind)
	}
	return out
}

// fixedClock returns a time source pinned to t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
