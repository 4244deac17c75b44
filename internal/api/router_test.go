package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/reservo/booking-system/internal/api/handler"
	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/ports"
	"github.com/reservo/booking-system/internal/core/service"
)

type stubAuth struct{}

func (stubAuth) Register(_ context.Context, email, _ string) (*domain.User, error) {
	return &domain.User{ID: "u9", Email: email, Role: domain.RoleCustomer}, nil
}

func (stubAuth) Login(context.Context, string, string) (string, *domain.User, error) {
	return "", nil, domain.ErrInvalidCredentials
}

func (stubAuth) VerifyEmail(context.Context, string) (bool, error) { return false, nil }

type stubResources struct{}

func (stubResources) List(context.Context) ([]*domain.Resource, error) {
	return []*domain.Resource{{ID: "r1", Name: "Conference Room A", Type: domain.ResourceRoom}}, nil
}

func (stubResources) Get(_ context.Context, id string) (*domain.Resource, error) {
	return nil, domain.ErrResourceNotFound
}

func (stubResources) CreateBatch(context.Context, []ports.ResourceInput) (*ports.CreateResourcesResult, error) {
	return &ports.CreateResourcesResult{Inserted: []*domain.Resource{}, Skipped: []string{}}, nil
}

func (stubResources) SetAvailability(context.Context, string, ports.AvailabilityInput) (*domain.Resource, error) {
	return nil, domain.ErrResourceNotFound
}

// stubBookings answers every call with err, or with a pending booking.
type stubBookings struct{ err error }

func (s stubBookings) one(id string) (*domain.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Booking{ID: id, ResourceID: "r1", UserID: "u1", Status: domain.BookingPending}, nil
}

func (s stubBookings) Create(context.Context, ports.CreateBookingInput) (*domain.Booking, error) {
	return s.one("b1")
}

func (s stubBookings) Get(_ context.Context, id string, _ domain.Identity) (*domain.Booking, error) {
	return s.one(id)
}

func (s stubBookings) Approve(_ context.Context, id string, _ domain.Identity) (*domain.Booking, error) {
	return s.one(id)
}

func (s stubBookings) Reject(_ context.Context, id string, _ domain.Identity) (*domain.Booking, error) {
	return s.one(id)
}

func (s stubBookings) Cancel(_ context.Context, id string, _ domain.Identity) (*domain.Booking, error) {
	return s.one(id)
}

func (s stubBookings) SetStatus(_ context.Context, id, _ string, _ domain.Identity) (*domain.Booking, error) {
	return s.one(id)
}

func (s stubBookings) Delete(context.Context, string, domain.Identity) error { return s.err }

func (s stubBookings) List(context.Context, ports.ListBookingsInput) ([]*domain.Booking, error) {
	return nil, s.err
}

func (s stubBookings) ListUpcoming(context.Context, domain.Identity) ([]*domain.Booking, error) {
	return nil, s.err
}

type routerFixture struct {
	e      *echo.Echo
	tokens *service.TokenService
}

func newRouterFixture(t *testing.T, bookings stubBookings, mutate ...func(*Dependencies)) routerFixture {
	t.Helper()
	tokens := service.NewTokenService("router-secret", time.Hour)
	deps := Dependencies{
		Auth:      stubAuth{},
		Resources: stubResources{},
		Bookings:  bookings,
		Gate:      service.NewGate(tokens),
		Checks: map[string]handler.DependencyCheck{
			"mongo": func(context.Context) error { return nil },
		},
		Logger: zerolog.Nop(),
	}
	for _, m := range mutate {
		m(&deps)
	}
	return routerFixture{e: NewRouter(deps), tokens: tokens}
}

func (f routerFixture) bearer(t *testing.T, id, role string) string {
	t.Helper()
	raw, err := f.tokens.Issue(&domain.User{ID: id, Email: id + "@example.com", Role: role})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + raw
}

func (f routerFixture) do(method, path, auth, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestRouter_AuthorizationGate(t *testing.T) {
	f := newRouterFixture(t, stubBookings{})
	customer := f.bearer(t, "u1", domain.RoleCustomer)
	adminTok := f.bearer(t, "a1", domain.RoleAdmin)

	tests := []struct {
		name     string
		method   string
		path     string
		auth     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"no header", http.MethodGet, "/bookings", "", "", http.StatusUnauthorized, "missing authorization header"},
		{"wrong scheme", http.MethodGet, "/bookings", "Basic abc", "", http.StatusUnauthorized, "invalid authorization header"},
		{"garbage token", http.MethodGet, "/bookings", "Bearer nope", "", http.StatusUnauthorized, "invalid token"},
		{"customer lists own", http.MethodGet, "/bookings", customer, "", http.StatusOK, ""},
		{"customer cannot approve", http.MethodPatch, "/bookings/b1", customer, `{"action":"approve"}`, http.StatusForbidden, "forbidden"},
		{"customer cannot delete", http.MethodDelete, "/bookings/b1", customer, "", http.StatusForbidden, "forbidden"},
		{"customer cannot create resources", http.MethodPost, "/resources", customer, `{"resources":[{"name":"X","type":"room"}]}`, http.StatusForbidden, "forbidden"},
		{"admin approves", http.MethodPatch, "/bookings/b1", adminTok, `{"action":"approve"}`, http.StatusOK, ""},
		{"admin creates for user", http.MethodPost, "/bookings/admin", adminTok, `{"resourceId":"r1","userId":"u1","start_time":"2025-01-01T10:00:00Z","end_time":"2025-01-01T11:00:00Z"}`, http.StatusCreated, ""},
		{"resources are public", http.MethodGet, "/resources", "", "", http.StatusOK, ""},
		{"available alias", http.MethodGet, "/resources/available", "", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.auth, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantErr != "" {
				if got := errorOf(t, rec); got != tt.wantErr {
					t.Fatalf("expected error %q, got %q", tt.wantErr, got)
				}
			}
		})
	}
}

func TestRouter_DomainErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		method   string
		path     string
		body     string
		wantCode int
	}{
		{"not found", domain.ErrBookingNotFound, http.MethodGet, "/bookings/b404", "", http.StatusNotFound},
		{"invalid transition", fmt.Errorf("approve: %w", domain.ErrInvalidTransition), http.MethodPatch, "/bookings/b1", `{"action":"approve"}`, http.StatusUnprocessableEntity},
		{"overlap", domain.ErrBookingOverlap, http.MethodPost, "/bookings", `{"resourceId":"r1","start_time":"2025-01-01T10:00:00Z","end_time":"2025-01-01T11:00:00Z"}`, http.StatusConflict},
		{"start in past", domain.ErrStartInPast, http.MethodPost, "/bookings", `{"resourceId":"r1","start_time":"2020-01-01T10:00:00Z","end_time":"2020-01-01T11:00:00Z"}`, http.StatusBadRequest},
		{"cutoff", domain.ErrCancellationWindowClosed, http.MethodPatch, "/bookings/b1/cancel", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t, stubBookings{err: tt.err})
			rec := f.do(tt.method, tt.path, f.bearer(t, "a1", domain.RoleAdmin), tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_UnknownResource(t *testing.T) {
	f := newRouterFixture(t, stubBookings{})
	rec := f.do(http.MethodGet, "/resources/r404", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouter_AuthRateLimit(t *testing.T) {
	f := newRouterFixture(t, stubBookings{}, func(d *Dependencies) {
		d.AuthRateLimit = 0.001
		d.AuthRateBurst = 1
	})

	body := `{"email":"alice@example.com","password":"wrong"}`
	if rec := f.do(http.MethodPost, "/login", "", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("first attempt: expected 401, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/login", "", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second attempt: expected 429, got %d", rec.Code)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newRouterFixture(t, stubBookings{}, func(d *Dependencies) {
		d.Registerer = reg
		d.Gatherer = reg
	})

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if rec := f.do(http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_MetricsDisabledWithoutRegistry(t *testing.T) {
	f := newRouterFixture(t, stubBookings{})
	if rec := f.do(http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
