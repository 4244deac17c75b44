// @title                       Booking System API
// @version                     1.0
// @description                 Resource booking service: customers reserve rooms and services, administrators manage the lifecycle.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/reservo/booking-system/internal/api"
	"github.com/reservo/booking-system/internal/api/handler"
	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/service"
	"github.com/reservo/booking-system/internal/infrastructure/db/mongo"
	"github.com/reservo/booking-system/internal/infrastructure/db/redis"
	"github.com/reservo/booking-system/internal/infrastructure/notify"
	"github.com/reservo/booking-system/internal/infrastructure/queue"
	"github.com/reservo/booking-system/internal/pkg/config"
	"github.com/reservo/booking-system/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log := logger.Init(logger.Options{})
		log.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "booking-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}()

	users := mongo.NewUserRepository(db)
	resources := mongo.NewResourceRepository(db)
	bookings := mongo.NewBookingRepository(db)
	for name, ensure := range map[string]func(context.Context) error{
		"users":     users.EnsureIndexes,
		"resources": resources.EnsureIndexes,
		"bookings":  bookings.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", name, err)
		}
	}

	// --- Notifications ---
	var sender notify.Sender = notify.NewLogSender(logger.Component("mailer"))
	if cfg.Notify.SMTPHost != "" {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.Notify.SMTPHost,
			Port:     cfg.Notify.SMTPPort,
			Username: cfg.Notify.SMTPUsername,
			Password: cfg.Notify.SMTPPassword,
			From:     cfg.Notify.SMTPFrom,
		})
	}
	dispatcher := queue.NewDispatcher(cfg.Notify.Workers, notify.NewMailer(sender), logger.Component("dispatcher"))
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatcher.Start(dispatchCtx)
	defer func() {
		stopDispatch()
		dispatcher.Wait()
	}()

	// --- Services ---
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	gate := service.NewGate(tokens)
	authService := service.NewAuthService(users, tokens, dispatcher, cfg.PublicBaseURL, logger.Component("auth"))
	resourceService := service.NewResourceService(resources, logger.Component("resources"))

	adminStatus, _ := domain.ParseBookingStatus(cfg.Booking.AdminDefaultStatus)
	bookingService := service.NewBookingService(service.BookingDeps{
		Bookings:    bookings,
		Events:      mongo.NewBookingEventRepository(db),
		Resources:   resources,
		Users:       users,
		Idempotency: redis.NewIdempotencyStore(rdb, cfg.Booking.IdempotencyTTL),
		Locker:      redis.NewResourceLocker(rdb, cfg.Booking.LockTTL),
		Notifier:    dispatcher,
	}, service.BookingPolicy{
		CancelCutoff:       cfg.Booking.CancelCutoff,
		ClockSkew:          cfg.Booking.ClockSkew,
		AdminDefaultStatus: adminStatus,
		PreventOverlap:     cfg.Booking.PreventOverlap,
	}, logger.Component("bookings"))

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return err
		}
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Auth:      authService,
		Resources: resourceService,
		Bookings:  bookingService,
		Gate:      gate,
		Checks: map[string]handler.DependencyCheck{
			"mongodb": handler.MongoCheck(db),
			"redis":   handler.RedisCheck(rdb),
		},
		Logger:        logger.Component("http"),
		AuthRateLimit: cfg.Limits.AuthRate,
		AuthRateBurst: cfg.Limits.AuthBurst,
		Registerer:    prometheus.DefaultRegisterer,
		Gatherer:      prometheus.DefaultGatherer,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
