package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/reservo/booking-system/docs"
	"github.com/reservo/booking-system/internal/api/handler"
	"github.com/reservo/booking-system/internal/api/middleware"
	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/ports"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Auth      ports.AuthService
	Resources ports.ResourceService
	Bookings  ports.BookingService
	Gate      middleware.Authorizer
	Checks    map[string]handler.DependencyCheck
	Logger    zerolog.Logger

	// AuthRateLimit is the sustained requests per second allowed per client IP
	// on /login and /register. Zero disables the limiter.
	AuthRateLimit float64
	AuthRateBurst int

	// Registerer and Gatherer enable HTTP metrics and /metrics when set.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Logger))
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.BodyLimit("1M"))
	if deps.Registerer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "booking",
			Registerer: deps.Registerer,
		}))
	}

	authHandler := handler.NewAuthHandler(deps.Auth)
	resourceHandler := handler.NewResourceHandler(deps.Resources)
	bookingHandler := handler.NewBookingHandler(deps.Bookings)

	authenticated := middleware.Auth(deps.Gate)
	adminOnly := middleware.RBAC(deps.Gate, domain.RoleAdmin)

	// --- Auth routes ---
	limited := authRateLimiter(deps.AuthRateLimit, deps.AuthRateBurst)
	e.POST("/register", authHandler.Register, limited...)
	e.POST("/login", authHandler.Login, limited...)
	e.GET("/verify", authHandler.Verify)

	// --- Resources ---
	e.GET("/resources", resourceHandler.List)
	e.GET("/resources/available", resourceHandler.List)
	e.GET("/resources/:id", resourceHandler.Get)
	e.POST("/resources", resourceHandler.Create, authenticated, adminOnly)
	e.PUT("/resources/:id/availability", resourceHandler.SetAvailability, authenticated, adminOnly)

	// --- Bookings ---
	bookings := e.Group("/bookings", authenticated)
	bookings.GET("", bookingHandler.List)
	bookings.POST("", bookingHandler.Create)
	bookings.GET("/my", bookingHandler.Upcoming)
	bookings.GET("/:id", bookingHandler.Get)
	bookings.PATCH("/:id/cancel", bookingHandler.Cancel)

	bookings.POST("/admin", bookingHandler.CreateForUser, adminOnly)
	bookings.PATCH("/:id", bookingHandler.Decide, adminOnly)
	bookings.PUT("/:id", bookingHandler.SetStatus, adminOnly)
	bookings.DELETE("/:id", bookingHandler.Delete, adminOnly)

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	if deps.Gatherer != nil {
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: deps.Gatherer,
		}))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// authRateLimiter throttles credential endpoints per client IP.
func authRateLimiter(perSecond float64, burst int) []echo.MiddlewareFunc {
	if perSecond <= 0 {
		return nil
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return []echo.MiddlewareFunc{
		echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
			Store: store,
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			ErrorHandler: func(_ echo.Context, err error) error {
				return echo.NewHTTPError(http.StatusForbidden, "unable to identify client")
			},
			DenyHandler: func(_ echo.Context, _ string, _ error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			},
		}),
	}
}
