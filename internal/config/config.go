// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Storage. An empty DATABASE_URL selects the in-memory store and
	// DATABASE_AUTO_MIGRATE is ignored.
	DatabaseURL         string `env:"DATABASE_URL"`
	DatabaseAutoMigrate bool   `env:"DATABASE_AUTO_MIGRATE" envDefault:"true"`

	// Redis backs sessions and rate limiting when set.
	RedisURL string `env:"REDIS_URL"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Per-user API rate limiting; requires Redis.
	RateLimitAPIEnabled bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	RateLimitAPIRPM     int  `env:"RATE_LIMIT_API_RPM" envDefault:"120"`
	RateLimitAPIBurst   int  `env:"RATE_LIMIT_API_BURST" envDefault:"30"`

	// Comma-separated list of allowed origins (e.g., "https://app.example.com,*.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Sessions
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionCookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"goalfund_session"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	SessionCacheSize    int           `env:"SESSION_CACHE_SIZE" envDefault:"10000"`

	// Advice. Without GEMINI_API_KEY every answer comes from the fallback.
	GeminiAPIKey     string        `env:"GEMINI_API_KEY"`
	AdviceModel      string        `env:"ADVICE_MODEL" envDefault:"gemini-2.5-flash"`
	AdviceTimeout    time.Duration `env:"ADVICE_TIMEOUT" envDefault:"8s"`
	AdviceCacheTTL   time.Duration `env:"ADVICE_CACHE_TTL" envDefault:"15m"`
	InsightWorkers   int           `env:"INSIGHT_WORKERS" envDefault:"2"`
	InsightQueueSize int           `env:"INSIGHT_QUEUE_SIZE" envDefault:"64"`

	// Ledger and dashboard
	Currency              string          `env:"CURRENCY" envDefault:"USD"`
	MonthlyBudget         decimal.Decimal `env:"MONTHLY_BUDGET" envDefault:"3200"`
	LedgerRejectOverdraft bool            `env:"LEDGER_REJECT_OVERDRAFT" envDefault:"false"`

	// Deadline reminders
	ReminderEnabled  bool          `env:"REMINDER_ENABLED" envDefault:"true"`
	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" envDefault:"1h"`
	ReminderWindow   time.Duration `env:"REMINDER_WINDOW" envDefault:"168h"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UsePostgres reports whether a database is configured.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// UseRedis reports whether Redis is configured.
func (c *Config) UseRedis() bool {
	return c.RedisURL != ""
}

// RateLimitActive reports whether per-user limits will be enforced.
func (c *Config) RateLimitActive() bool {
	return c.RateLimitAPIEnabled && c.UseRedis()
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.AppPort > 0 && c.AppPort <= 65535, "APP_PORT %d out of range", c.AppPort)
	check(c.LogFormat == "json" || c.LogFormat == "text", "LOG_FORMAT must be json or text, got %q", c.LogFormat)
	check(validLogLevels[strings.ToLower(c.LogLevel)], "LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	check(c.ReadTimeout > 0 && c.WriteTimeout > 0 && c.ShutdownTimeout > 0, "server timeouts must be positive")
	check(c.MaxRequestBodySize > 0, "MAX_REQUEST_BODY_SIZE must be positive")

	if c.RateLimitActive() {
		check(c.RateLimitAPIRPM > 0, "RATE_LIMIT_API_RPM must be positive")
		check(c.RateLimitAPIBurst > 0, "RATE_LIMIT_API_BURST must be positive")
	}

	check(c.SessionTTL > 0, "SESSION_TTL must be positive")
	check(c.SessionCookieName != "", "SESSION_COOKIE_NAME must not be empty")
	check(c.SessionCacheSize > 0, "SESSION_CACHE_SIZE must be positive")
	check(!c.IsProduction() || c.SessionCookieSecure, "SESSION_COOKIE_SECURE must be true in production")

	check(c.AdviceTimeout > 0, "ADVICE_TIMEOUT must be positive")
	check(c.AdviceCacheTTL >= 0, "ADVICE_CACHE_TTL must not be negative")
	check(c.InsightWorkers > 0, "INSIGHT_WORKERS must be positive")
	check(c.InsightQueueSize > 0, "INSIGHT_QUEUE_SIZE must be positive")

	check(money.GetCurrency(c.Currency) != nil, "CURRENCY %q is not an ISO 4217 code", c.Currency)
	check(!c.MonthlyBudget.IsNegative(), "MONTHLY_BUDGET must not be negative")

	if c.ReminderEnabled {
		check(c.ReminderInterval > 0, "REMINDER_INTERVAL must be positive")
		check(c.ReminderWindow > 0, "REMINDER_WINDOW must be positive")
	}

	return errors.Join(errs...)
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var decimalParser = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf(decimal.Decimal{}): func(v string) (any, error) {
		return decimal.NewFromString(strings.TrimSpace(v))
	},
}

// Load parses environment variables and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{FuncMap: decimalParser}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
