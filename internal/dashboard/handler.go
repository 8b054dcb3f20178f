// Package dashboard serves the per-role landing pages.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartrental/rental-web/internal/audit"
	"github.com/smartrental/rental-web/internal/auth"
	"github.com/smartrental/rental-web/internal/rentalapi"
	"github.com/smartrental/rental-web/internal/session"
	"github.com/smartrental/rental-web/internal/view"
)

const recentEventLimit = 10

// API is the part of the rental API the dashboards read from.
type API interface {
	OwnerProfile(ctx context.Context) (rentalapi.Profile, error)
	Tenants(ctx context.Context) ([]rentalapi.Tenant, error)
}

// Handler renders the dashboards.
type Handler struct {
	logger    *slog.Logger
	api       API
	auth      *auth.Service
	templates *view.Engine
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, api API, authService *auth.Service, templates *view.Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, api: api, auth: authService, templates: templates}
}

// MountRoutes registers one guarded route per role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.auth.Guard(session.RoleAdmin)).Get("/admin-dashboard", h.admin)
	r.With(h.auth.Guard(session.RoleOwner)).Get("/owner-dashboard", h.owner)
	r.With(h.auth.Guard(session.RoleTenant)).Get("/tenant-dashboard", h.tenant)
}

type adminPageData struct {
	Tenants []rentalapi.Tenant
	Events  []audit.Event
	Error   string
}

type ownerPageData struct {
	Profile *rentalapi.Profile
	Error   string
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data adminPageData
	tenants, err := h.api.Tenants(ctx)
	if err != nil {
		data.Error = h.failure(err, "Failed to load tenants.")
	}
	data.Tenants = tenants

	events, err := h.auth.RecentEvents(ctx, recentEventLimit)
	if err != nil {
		h.logger.Warn("load recent auth events", slog.Any("error", err))
	}
	data.Events = events

	h.render(w, r, "pages/admin_dashboard.html", "Admin Dashboard", data)
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) {
	var data ownerPageData
	profile, err := h.api.OwnerProfile(r.Context())
	if err != nil {
		data.Error = h.failure(err, "Failed to load profile.")
	} else {
		data.Profile = &profile
	}
	h.render(w, r, "pages/owner_dashboard.html", "Owner Dashboard", data)
}

func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/tenant_dashboard.html", "Tenant Dashboard", nil)
}

func (h *Handler) failure(err error, fallback string) string {
	message := auth.NormalizeError(err)
	if message == auth.FallbackMessage {
		message = fallback
	}
	h.logger.Warn("dashboard api call failed", slog.String("message", message), slog.Any("error", err))
	return message
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	if err := h.templates.Render(w, name, view.NewTemplateData(r, title, data)); err != nil {
		h.logger.Error("render dashboard", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
