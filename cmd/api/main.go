// Package main is the entrypoint for the goalfund API server.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/goalfund/goalfund/internal/advice"
	"github.com/goalfund/goalfund/internal/auth"
	"github.com/goalfund/goalfund/internal/cache"
	"github.com/goalfund/goalfund/internal/config"
	"github.com/goalfund/goalfund/internal/dashboard"
	"github.com/goalfund/goalfund/internal/handler"
	"github.com/goalfund/goalfund/internal/ledger"
	"github.com/goalfund/goalfund/internal/metrics"
	"github.com/goalfund/goalfund/internal/middleware"
	"github.com/goalfund/goalfund/internal/reminder"
	"github.com/goalfund/goalfund/internal/server"
	"github.com/goalfund/goalfund/internal/service"
	"github.com/goalfund/goalfund/internal/session"
	"github.com/goalfund/goalfund/internal/store"
	"github.com/goalfund/goalfund/internal/store/memory"
	"github.com/goalfund/goalfund/internal/store/postgres"
)

const adviceCacheSize = 256

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background components outlive the signal context; they are stopped
	// through server shutdown hooks.
	appCtx := context.WithoutCancel(ctx)

	var recorder metrics.Recorder = metrics.NewNoop()
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		prom := metrics.NewPrometheus()
		recorder = prom
		metricsHandler = prom.Handler()
	}

	checks := map[string]handler.HealthChecker{}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	checks["store"] = st

	var cacheClient *cache.Cache
	if cfg.UseRedis() {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			st.Close()
			return errors.New("redis unavailable")
		}
		checks["redis"] = cacheClient
		logger.Info("connected to Redis")
	}

	var sessionStore session.Store
	if cacheClient != nil {
		sessionStore = session.NewRedisStore(cacheClient)
	} else {
		sessionStore = session.NewMemoryStore(cfg.SessionCacheSize)
	}
	sessions := session.NewManager(sessionStore, cfg.SessionTTL, logger)

	overdraft := ledger.OverdraftAllow
	if cfg.LedgerRejectOverdraft {
		overdraft = ledger.OverdraftReject
	}
	engine := ledger.New(st,
		ledger.WithCurrency(cfg.Currency),
		ledger.WithOverdraftPolicy(overdraft),
		ledger.WithMetrics(recorder),
		ledger.WithLogger(logger),
	)

	var provider advice.Provider
	if cfg.GeminiAPIKey != "" {
		gemini, err := advice.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.AdviceModel)
		if err != nil {
			logger.Warn("advice provider unavailable, using fallback", "error", err)
		} else {
			provider = gemini
			logger.Info("advice provider configured", "model", cfg.AdviceModel)
		}
	}
	advisor := advice.NewAdvisor(provider,
		advice.WithTimeout(cfg.AdviceTimeout),
		advice.WithCache(adviceCacheSize, cfg.AdviceCacheTTL),
		advice.WithAdvisorMetrics(recorder),
		advice.WithAdvisorLogger(logger),
	)
	insightWorker := advice.NewWorker(st, advisor, cfg.InsightWorkers, cfg.InsightQueueSize, logger, recorder)
	insightWorker.Start(appCtx)

	var reminders *reminder.Worker
	if cfg.ReminderEnabled {
		reminders = reminder.NewWorker(st, cfg.ReminderInterval, cfg.ReminderWindow, cfg.Currency, logger, recorder)
		go func() {
			if err := reminders.Run(appCtx); err != nil {
				logger.Error("reminder worker exited", "error", err)
			}
		}()
	}

	authSvc := service.NewAuthService(st, sessions, auth.NewPasswordHasher(auth.DefaultParams), logger, recorder)
	goalSvc := service.NewGoalService(st, engine, insightWorker, cfg.Currency, logger, recorder)
	txnSvc := service.NewTransactionService(st, engine)
	noteSvc := service.NewNotificationService(st)
	insightSvc := service.NewInsightService(st, insightWorker, cfg.Currency, logger)
	dashSvc := dashboard.NewService(st, dashboard.NewAggregator(st, cfg.MonthlyBudget), advisor, cfg.Currency, logger, recorder)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	// A nil *cache.Cache must not reach the interface field.
	var limiter middleware.RateLimiter
	if cacheClient != nil {
		limiter = cacheClient
	}
	rateLimit := middleware.RateLimitConfig{
		Logger:  logger,
		Limiter: limiter,
		Metrics: recorder,
		Enabled: cfg.RateLimitActive(),
		RPM:     cfg.RateLimitAPIRPM,
		Burst:   cfg.RateLimitAPIBurst,
	}

	r := handler.NewRouter(handler.Routes{
		Logger:        logger,
		Health:        handler.NewHealthHandler(checks),
		Auth:          handler.NewAuthHandler(authSvc, handler.CookieConfig{Name: cfg.SessionCookieName, Secure: cfg.SessionCookieSecure}, logger),
		Goals:         handler.NewGoalHandler(goalSvc, logger),
		Transactions:  handler.NewTransactionHandler(txnSvc, logger),
		Notifications: handler.NewNotificationHandler(noteSvc, logger),
		Insights:      handler.NewInsightHandler(insightSvc, logger),
		Dashboard:     handler.NewDashboardHandler(dashSvc, logger),
		Metrics:       metricsHandler,
		AuthMiddleware: middleware.AuthConfig{
			Logger:     logger,
			Sessions:   sessions,
			CookieName: cfg.SessionCookieName,
			Metrics:    recorder,
		},
		UserRateLimit: rateLimit,
		IPRateLimit:   rateLimit,
		CORS:          corsCfg,
		MaxBodySize:   cfg.MaxRequestBodySize,
		IsDevelopment: cfg.IsDevelopment(),
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Hooks run last-registered first: workers drain before their stores close.
	srv.OnShutdown("store", func(context.Context) error {
		st.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}
	srv.OnShutdown("insight-worker", insightWorker.Shutdown)
	if reminders != nil {
		srv.OnShutdown("reminder-worker", reminders.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", storeKind(cfg),
		"redis", cacheClient != nil,
		"advice_provider", provider != nil,
	)

	return srv.Run(ctx)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if !cfg.UsePostgres() {
		logger.Info("using in-memory store")
		return memory.New(), nil
	}

	if cfg.DatabaseAutoMigrate {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			logger.Error(
				"failed to run migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return nil, errors.New("database migration failed")
		}
		logger.Info("database migrations applied")
	}

	pg, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return nil, errors.New("database unavailable")
	}
	logger.Info("connected to database")
	return pg, nil
}

func storeKind(cfg *config.Config) string {
	if cfg.UsePostgres() {
		return "postgres"
	}
	return "memory"
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)

	var h slog.Handler
	if cfg.LogFormat == "text" {
		h = tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
