// Package accounts serves the registration pages for admin, owner and tenant
// accounts.
package accounts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/smartrental/rental-web/internal/auth"
	"github.com/smartrental/rental-web/internal/rentalapi"
	"github.com/smartrental/rental-web/internal/session"
	"github.com/smartrental/rental-web/internal/shared"
	"github.com/smartrental/rental-web/internal/view"
)

// API is the part of the rental API the registration pages call.
type API interface {
	RegisterAdmin(ctx context.Context, reg rentalapi.Registration) error
	RegisterOwner(ctx context.Context, reg rentalapi.Registration) error
	RegisterTenant(ctx context.Context, reg rentalapi.Registration) error
}

// Handler wires the registration endpoints.
type Handler struct {
	logger    *slog.Logger
	api       API
	auth      *auth.Service
	templates *view.Engine
	validator *validator.Validate
	pages     map[session.Role]page
}

// page describes one registration page.
type page struct {
	path     string
	title    string
	subtitle string
	success  string
	fallback string
	next     string
	register func(API, context.Context, rentalapi.Registration) error
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, api API, authService *auth.Service, templates *view.Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		api:       api,
		auth:      authService,
		templates: templates,
		validator: validator.New(),
		pages: map[session.Role]page{
			session.RoleAdmin: {
				path:     "/register-admin",
				title:    "Register Admin",
				subtitle: "Create the first admin account. Then log in and open the admin dashboard.",
				success:  "Admin registered successfully. Now log in!",
				fallback: "Registration failed.",
				next:     "/login?mode=admin",
				register: API.RegisterAdmin,
			},
			session.RoleTenant: {
				path:     "/register-tenant",
				title:    "Register Tenant",
				subtitle: "Tenant self-registration. Log in using the owner / tenant mode.",
				success:  "Tenant registered successfully. Now log in!",
				fallback: "Registration failed.",
				next:     "/login?mode=user",
				register: API.RegisterTenant,
			},
			session.RoleOwner: {
				path:     "/register-owner",
				title:    "Register Owner",
				subtitle: "Admin only: register an owner account.",
				success:  "Owner registered successfully!",
				fallback: "Owner registration failed.",
				next:     "/register-owner",
				register: API.RegisterOwner,
			},
		},
	}
}

// MountRoutes registers the public pages and the admin-only owner page.
func (h *Handler) MountRoutes(r chi.Router) {
	for _, role := range []session.Role{session.RoleAdmin, session.RoleTenant} {
		r.Get(h.pages[role].path, h.show(role))
		r.Post(h.pages[role].path, h.submit(role))
	}
	r.Group(func(r chi.Router) {
		r.Use(h.auth.Guard(session.RoleAdmin))
		r.Get(h.pages[session.RoleOwner].path, h.show(session.RoleOwner))
		r.Post(h.pages[session.RoleOwner].path, h.submit(session.RoleOwner))
	})
}

type registrationForm struct {
	Username string `validate:"required,max=150"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=6,max=128"`
	Phone    string `validate:"required,max=32"`
	Address  string `validate:"required,max=255"`
}

type registerPageData struct {
	Action   string
	Subtitle string
	Role     session.Role
	Form     registrationForm
	Errors   map[string]string
	Error    string
}

func (h *Handler) show(role session.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, role, registrationForm{}, nil, "")
	}
}

func (h *Handler) submit(role session.Role) http.HandlerFunc {
	p := h.pages[role]
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		form := registrationForm{
			Username: strings.TrimSpace(r.PostFormValue("username")),
			Email:    strings.TrimSpace(r.PostFormValue("email")),
			Password: r.PostFormValue("password"),
			Phone:    strings.TrimSpace(r.PostFormValue("phone")),
			Address:  strings.TrimSpace(r.PostFormValue("address")),
		}
		if fieldErrors := h.validate(form); len(fieldErrors) > 0 {
			form.Password = ""
			h.render(w, r, http.StatusBadRequest, role, form, fieldErrors, "Please correct the highlighted fields.")
			return
		}

		reg := rentalapi.Registration{
			Username: form.Username,
			Email:    form.Email,
			Password: form.Password,
			Address:  form.Address,
			Phone:    form.Phone,
			Role:     string(role),
		}
		if err := p.register(h.api, r.Context(), reg); err != nil {
			message := auth.NormalizeError(err)
			if message == auth.FallbackMessage {
				message = p.fallback
			}
			h.logger.Warn("registration failed",
				slog.String("role", string(role)),
				slog.String("message", message),
				slog.Any("error", err))
			form.Password = ""
			h.render(w, r, statusFor(err), role, form, nil, message)
			return
		}

		h.logger.Info("account registered", slog.String("role", string(role)), slog.String("username", form.Username))
		if st := shared.StorageFromContext(r.Context()); st != nil {
			st.AddFlash(shared.FlashMessage{Kind: "success", Message: p.success})
		}
		http.Redirect(w, r, p.next, http.StatusSeeOther)
	}
}

func (h *Handler) validate(form registrationForm) map[string]string {
	err := h.validator.Struct(form)
	if err == nil {
		return nil
	}
	fieldErrors := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fieldErrors["Username"] = "This value is invalid."
		return fieldErrors
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fieldErrors[fe.Field()] = "This field is required."
		case "email":
			fieldErrors[fe.Field()] = "Enter a valid email address."
		case "min":
			fieldErrors[fe.Field()] = "Must be at least " + fe.Param() + " characters."
		case "max":
			fieldErrors[fe.Field()] = "This value is too long."
		default:
			fieldErrors[fe.Field()] = "This value is invalid."
		}
	}
	return fieldErrors
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, role session.Role, form registrationForm, fieldErrors map[string]string, message string) {
	p := h.pages[role]
	data := registerPageData{
		Action:   p.path,
		Subtitle: p.subtitle,
		Role:     role,
		Form:     form,
		Errors:   fieldErrors,
		Error:    message,
	}
	if err := h.templates.RenderStatus(w, status, "pages/register.html", view.NewTemplateData(r, p.title, data)); err != nil {
		h.logger.Error("render registration", slog.String("role", string(role)), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func statusFor(err error) int {
	var apiErr *rentalapi.Error
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}
