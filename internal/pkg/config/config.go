package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port          string        `env:"PORT,            default=8080"`
	Env           string        `env:"ENV,             default=development"`
	JWTSecret     string        `env:"JWT_SECRET,      required"`
	JWTTTL        time.Duration `env:"JWT_TTL,         default=24h"`
	LogLevel      string        `env:"LOG_LEVEL,       default=info"`
	PublicBaseURL string        `env:"PUBLIC_BASE_URL, default=http://localhost:8080"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Booking BookingConfig
	Notify  NotifyConfig
	Admin   AdminConfig
	Limits  LimitsConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=booking_system"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// BookingConfig holds the business rules of the booking lifecycle.
type BookingConfig struct {
	CancelCutoff       time.Duration `env:"BOOKING_CANCEL_CUTOFF,        default=2h"`
	ClockSkew          time.Duration `env:"BOOKING_CLOCK_SKEW,           default=1m"`
	AdminDefaultStatus string        `env:"BOOKING_ADMIN_DEFAULT_STATUS, default=confirmed"`
	PreventOverlap     bool          `env:"BOOKING_PREVENT_OVERLAP,      default=false"`
	LockTTL            time.Duration `env:"BOOKING_LOCK_TTL,             default=5s"`
	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL,              default=24h"`
}

// NotifyConfig configures outbound email. An empty SMTP host logs messages instead.
type NotifyConfig struct {
	Workers      int    `env:"NOTIFY_WORKERS, default=4"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT,      default=587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM,      default=Reservo <noreply@reservo.local>"`
}

// AdminConfig seeds the first admin account when both fields are set.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// LimitsConfig throttles the unauthenticated auth endpoints per client IP.
type LimitsConfig struct {
	AuthRate  float64 `env:"AUTH_RATE_LIMIT, default=5"`
	AuthBurst int     `env:"AUTH_RATE_BURST, default=10"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Booking.AdminDefaultStatus {
	case "pending", "confirmed":
	default:
		return fmt.Errorf("BOOKING_ADMIN_DEFAULT_STATUS must be pending or confirmed, got %q", c.Booking.AdminDefaultStatus)
	}
	if c.Booking.CancelCutoff < 0 || c.Booking.ClockSkew < 0 {
		return errors.New("booking durations must not be negative")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
