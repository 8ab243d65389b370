package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/go-collect/auth"
	"github.com/diewo77/go-collect/gate"
	"github.com/diewo77/go-collect/httpx"
	"github.com/diewo77/go-collect/internal/metrics"
	"github.com/diewo77/go-collect/internal/policy"
	"github.com/diewo77/go-collect/internal/services"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// RouterConfig holds what the router needs. Metrics may be nil.
type RouterConfig struct {
	DB       *gorm.DB
	Issuer   *auth.Issuer
	AuthGate *policy.AuthGate
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// NewRouter builds the services and handlers and mounts every route.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	db, ag := cfg.DB, cfg.AuthGate

	users := services.NewUserService(db)
	clients := services.NewClientService(db)
	debtors := services.NewDebtorService(db)
	debts := services.NewDebtService(db, cfg.Metrics)
	actions := services.NewActionService(db)
	stats, err := services.NewStatsService(db)
	if err != nil {
		return nil, err
	}

	ah := NewAuthHandler(services.NewAuthService(db, cfg.Issuer, cfg.Logger, cfg.Metrics))
	uh := NewUserHandler(users, ag, ag.InvalidateUser)
	ch := NewClientHandler(clients, ag)
	dh := NewDebtorHandler(debtors, clients, ag)
	th := NewDebtHandler(debts, debtors, ag)
	xh := NewActionHandler(actions, debtors, ag)
	sh := NewStatsHandler(stats, ag)

	r := chi.NewRouter()
	r.Use(withRecover(cfg.Logger), withLogging(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, "Cannot find route", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/login", ah.Login)
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/refresh", ah.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(cfg.Issuer, ag.VerifyUser).RequireAuth)
		can := func(resource string, action gate.Action, h http.HandlerFunc) http.Handler {
			return ag.RequirePermission(resource, action)(h)
		}

		r.Get("/auth", ah.Me)
		r.Post("/auth/logout", ah.Logout)

		admin := r.With(ag.RequireAdmin())
		admin.Post("/users/new", uh.Create)
		admin.Get("/users", uh.List)
		admin.Patch("/users/update/{id}", uh.Update)
		admin.Delete("/users/{id}/delete", uh.Delete)
		r.Method(http.MethodGet, "/users/{id}", can(policy.ResourceUser, gate.ActionView, uh.Get))
		r.Method(http.MethodGet, "/users/{id}/actions", can(policy.ResourceUser, gate.ActionView, uh.Actions))

		r.Method(http.MethodPost, "/clients/new", can(policy.ResourceClient, gate.ActionCreate, ch.Create))
		r.Method(http.MethodGet, "/clients", can(policy.ResourceClient, gate.ActionList, ch.List))
		r.Method(http.MethodGet, "/clients/{id}", can(policy.ResourceClient, gate.ActionView, ch.Get))
		r.Method(http.MethodPatch, "/clients/{id}/update", can(policy.ResourceClient, gate.ActionUpdate, ch.Update))
		r.Method(http.MethodDelete, "/clients/{id}/delete", can(policy.ResourceClient, gate.ActionDelete, ch.Delete))

		r.Method(http.MethodPost, "/debtors/new", can(policy.ResourceDebtor, gate.ActionCreate, dh.Create))
		r.Method(http.MethodGet, "/debtors", can(policy.ResourceDebtor, gate.ActionList, dh.List))
		r.Method(http.MethodGet, "/debtors/{id}", can(policy.ResourceDebtor, gate.ActionView, dh.Get))
		r.Method(http.MethodGet, "/debtors/{id}/detail", can(policy.ResourceDebtor, gate.ActionView, dh.Detail))
		r.Method(http.MethodPatch, "/debtors/{id}/update", can(policy.ResourceDebtor, gate.ActionUpdate, dh.Update))
		r.Method(http.MethodDelete, "/debtors/{id}/delete", can(policy.ResourceDebtor, gate.ActionDelete, dh.Delete))

		r.Method(http.MethodPost, "/debts/new", can(policy.ResourceDebt, gate.ActionCreate, th.Create))
		r.Method(http.MethodGet, "/debts", can(policy.ResourceDebt, gate.ActionList, th.List))
		r.Method(http.MethodGet, "/debts/{id}", can(policy.ResourceDebt, gate.ActionView, th.Get))
		r.Method(http.MethodGet, "/debts/{id}/detail", can(policy.ResourceDebt, gate.ActionView, th.Detail))
		r.Method(http.MethodPatch, "/debts/{id}/update", can(policy.ResourceDebt, gate.ActionUpdate, th.Update))
		r.Method(http.MethodDelete, "/debts/{id}/delete", can(policy.ResourceDebt, gate.ActionDelete, th.Delete))

		r.Method(http.MethodPost, "/actions/new", can(policy.ResourceAction, gate.ActionCreate, xh.Create))
		r.Method(http.MethodGet, "/actions", can(policy.ResourceAction, gate.ActionList, xh.List))
		r.Method(http.MethodGet, "/actions/{id}", can(policy.ResourceAction, gate.ActionView, xh.Get))
		r.Method(http.MethodGet, "/actions/{id}/detail", can(policy.ResourceAction, gate.ActionView, xh.Detail))
		r.Method(http.MethodPatch, "/actions/{id}/update", can(policy.ResourceAction, gate.ActionUpdate, xh.Update))
		r.Method(http.MethodDelete, "/actions/{id}/delete", can(policy.ResourceAction, gate.ActionDelete, xh.Delete))

		r.Method(http.MethodGet, "/stats", can(policy.ResourceStats, gate.ActionView, sh.Summary))
	})
	return r, nil
}

func withLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &metrics.StatusWriter{ResponseWriter: w, Status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.Status,
				"duration", time.Since(start),
			)
		})
	}
}

func withRecover(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.ErrorContext(r.Context(), "panic recovered", "panic", rec, "path", r.URL.Path)
					httpx.JSONError(w, http.StatusInternalServerError, "Internal server error", nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
