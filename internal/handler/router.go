package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/goalfund/goalfund/internal/middleware"
)

// Routes bundles everything the router mounts. Metrics is optional.
type Routes struct {
	Logger        *slog.Logger
	Health        *HealthHandler
	Auth          *AuthHandler
	Goals         *GoalHandler
	Transactions  *TransactionHandler
	Notifications *NotificationHandler
	Insights      *InsightHandler
	Dashboard     *DashboardHandler
	Metrics       http.Handler

	AuthMiddleware middleware.AuthConfig
	UserRateLimit  middleware.RateLimitConfig
	IPRateLimit    middleware.RateLimitConfig
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	IsDevelopment  bool
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(rt Routes) *chi.Mux {
	h := New()
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(rt.Logger))
	r.Use(middleware.Recoverer(rt.Logger))
	r.Use(middleware.Security(rt.IsDevelopment))
	r.Use(middleware.CORS(rt.CORS))

	r.Get("/", h.Info)
	r.Get("/healthz", rt.Health.Healthz)
	r.Get("/readyz", rt.Health.Readyz)
	if rt.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(rt.MaxBodySize))

		r.With(middleware.RateLimitIP(rt.IPRateLimit)).Group(func(r chi.Router) {
			r.Post("/auth/register", rt.Auth.Register)
			r.Post("/auth/login", rt.Auth.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(rt.AuthMiddleware))
			r.Use(middleware.RateLimitUser(rt.UserRateLimit))

			r.Post("/auth/logout", rt.Auth.Logout)
			r.Get("/auth/me", rt.Auth.Me)

			r.Route("/goals", func(r chi.Router) {
				r.Get("/", rt.Goals.List)
				r.Post("/", rt.Goals.Create)
				r.Get("/{id}", rt.Goals.Get)
				r.Patch("/{id}", rt.Goals.Update)
				r.Delete("/{id}", rt.Goals.Delete)
				r.Get("/{id}/transactions", rt.Transactions.ListForGoal)
				r.Get("/{id}/insights", rt.Insights.ListForGoal)
				r.Post("/{id}/insights", rt.Insights.Generate)
			})

			r.Get("/transactions", rt.Transactions.List)
			r.Post("/transactions", rt.Transactions.Create)

			r.Get("/notifications", rt.Notifications.List)
			r.Patch("/notifications/{id}/read", rt.Notifications.MarkRead)

			r.Get("/insights", rt.Insights.List)
			r.Patch("/insights/{id}/read", rt.Insights.MarkRead)

			r.Get("/financial-tips", rt.Dashboard.FinancialTips)
			r.Get("/dashboard", rt.Dashboard.Dashboard)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
