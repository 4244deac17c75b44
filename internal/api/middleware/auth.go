package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reservo/booking-system/internal/pkg/metrics"
	"github.com/reservo/booking-system/internal/core/domain"
)

const identityKey = "identity"

// Authorizer is the authorization gate consulted by Auth and RBAC.
type Authorizer interface {
	Authorize(header string, allowed ...string) domain.AuthResult
	Permit(identity domain.Identity, allowed ...string) domain.AuthResult
}

// Auth resolves the bearer token through the gate and stores the caller
// identity in the echo context. roles, when given, restrict the route.
func Auth(gate Authorizer, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			return admit(c, next, gate.Authorize(header, roles...))
		}
	}
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	return id, ok
}

func admit(c echo.Context, next echo.HandlerFunc, res domain.AuthResult) error {
	switch r := res.(type) {
	case domain.Authorized:
		c.Set(identityKey, r.Identity)
		return next(c)
	case domain.Rejected:
		metrics.AuthRejectionsTotal.WithLabelValues(string(r.Kind)).Inc()
		return echo.NewHTTPError(r.StatusCode, r.Reason)
	default:
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
}
