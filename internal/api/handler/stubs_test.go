package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/reservo/booking-system/internal/api/middleware"
	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/ports"
)

var (
	customer = domain.Identity{SubjectID: "u1", Email: "alice@example.com", Role: domain.RoleCustomer}
	admin    = domain.Identity{SubjectID: "a1", Email: "admin@example.com", Role: domain.RoleAdmin}
)

// newContext builds an echo context with the validator installed.
func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// fixedGate authorizes every request as id.
type fixedGate struct{ id domain.Identity }

func (g fixedGate) Authorize(string, ...string) domain.AuthResult {
	return domain.Authorized{Identity: g.id}
}

func (g fixedGate) Permit(id domain.Identity, _ ...string) domain.AuthResult {
	return domain.Authorized{Identity: id}
}

// as runs h behind the Auth middleware resolving to id.
func as(id domain.Identity, h echo.HandlerFunc) echo.HandlerFunc {
	return middleware.Auth(fixedGate{id: id})(h)
}

type stubAuthService struct {
	registerFn func(ctx context.Context, email, password string) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	verifyFn   func(ctx context.Context, token string) (bool, error)
}

func (s *stubAuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	return s.registerFn(ctx, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) VerifyEmail(ctx context.Context, token string) (bool, error) {
	return s.verifyFn(ctx, token)
}

// stubBookingService records the last call and answers with booking or err.
type stubBookingService struct {
	booking  *domain.Booking
	bookings []*domain.Booking
	err      error

	lastCreate ports.CreateBookingInput
	lastList   ports.ListBookingsInput
	lastID     string
	lastStatus string
	lastActor  domain.Identity
	calls      []string
}

func (s *stubBookingService) record(op, id string, who domain.Identity) {
	s.calls = append(s.calls, op)
	s.lastID = id
	s.lastActor = who
}

func (s *stubBookingService) result() (*domain.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.booking, nil
}

func (s *stubBookingService) Create(_ context.Context, in ports.CreateBookingInput) (*domain.Booking, error) {
	s.record("create", "", in.Actor)
	s.lastCreate = in
	return s.result()
}

func (s *stubBookingService) Get(_ context.Context, id string, who domain.Identity) (*domain.Booking, error) {
	s.record("get", id, who)
	return s.result()
}

func (s *stubBookingService) Approve(_ context.Context, id string, actor domain.Identity) (*domain.Booking, error) {
	s.record("approve", id, actor)
	return s.result()
}

func (s *stubBookingService) Reject(_ context.Context, id string, actor domain.Identity) (*domain.Booking, error) {
	s.record("reject", id, actor)
	return s.result()
}

func (s *stubBookingService) Cancel(_ context.Context, id string, requester domain.Identity) (*domain.Booking, error) {
	s.record("cancel", id, requester)
	return s.result()
}

func (s *stubBookingService) SetStatus(_ context.Context, id, status string, actor domain.Identity) (*domain.Booking, error) {
	s.record("set_status", id, actor)
	s.lastStatus = status
	return s.result()
}

func (s *stubBookingService) Delete(_ context.Context, id string, actor domain.Identity) error {
	s.record("delete", id, actor)
	return s.err
}

func (s *stubBookingService) List(_ context.Context, in ports.ListBookingsInput) ([]*domain.Booking, error) {
	s.record("list", "", in.Identity)
	s.lastList = in
	return s.bookings, s.err
}

func (s *stubBookingService) ListUpcoming(_ context.Context, who domain.Identity) ([]*domain.Booking, error) {
	s.record("upcoming", "", who)
	return s.bookings, s.err
}

type stubResourceService struct {
	resources []*domain.Resource
	result    *ports.CreateResourcesResult
	err       error

	lastInputs       []ports.ResourceInput
	lastAvailability ports.AvailabilityInput
}

func (s *stubResourceService) List(context.Context) ([]*domain.Resource, error) {
	return s.resources, s.err
}

func (s *stubResourceService) Get(_ context.Context, id string) (*domain.Resource, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, r := range s.resources {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrResourceNotFound
}

func (s *stubResourceService) CreateBatch(_ context.Context, inputs []ports.ResourceInput) (*ports.CreateResourcesResult, error) {
	s.lastInputs = inputs
	return s.result, s.err
}

func (s *stubResourceService) SetAvailability(_ context.Context, id string, in ports.AvailabilityInput) (*domain.Resource, error) {
	s.lastAvailability = in
	return s.Get(context.Background(), id)
}
