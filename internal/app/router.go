package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/smartrental/rental-web/internal/accounts"
	"github.com/smartrental/rental-web/internal/auth"
	"github.com/smartrental/rental-web/internal/dashboard"
	"github.com/smartrental/rental-web/internal/observability"
	"github.com/smartrental/rental-web/internal/platform/httpx"
	"github.com/smartrental/rental-web/internal/shared"
	"github.com/smartrental/rental-web/internal/view"
	"github.com/smartrental/rental-web/web"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	StorageManager   *shared.StorageManager
	AuthHandler      *auth.Handler
	AccountsHandler  *accounts.Handler
	DashboardHandler *dashboard.Handler
	Metrics          *observability.Metrics
	HealthChecks     map[string]HealthCheck
}

// NewRouter constructs the chi.Router with the application defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	// Static assets skip browser storage and rate limiting.
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}
	r.Get("/healthz", healthHandler(params.HealthChecks))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	pages := &pageHandler{logger: params.Logger, templates: params.Templates}
	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			StorageManager: params.StorageManager,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}
		r.Use(chimw.Logger)

		r.Get("/", pages.home)
		r.Get("/unauthorized", pages.unauthorized)
		params.AuthHandler.MountRoutes(r)
		if params.AccountsHandler != nil {
			params.AccountsHandler.MountRoutes(r)
		}
		if params.DashboardHandler != nil {
			params.DashboardHandler.MountRoutes(r)
		}
		r.NotFound(pages.notFound)
	})

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", name+": "+err.Error())
				return
			}
			status[name] = "ok"
		}
		httpx.JSON(w, http.StatusOK, status)
	}
}
