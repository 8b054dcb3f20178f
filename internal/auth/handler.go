package auth

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/smartrental/rental-web/internal/audit"
	"github.com/smartrental/rental-web/internal/session"
	"github.com/smartrental/rental-web/internal/shared"
	"github.com/smartrental/rental-web/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	templates  *view.Engine
	validator  *validator.Validate
	loginLimit int
}

// NewHandler constructs a Handler instance. loginLimit caps POST /login per
// client IP and minute; zero disables the limit.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, loginLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:     logger,
		service:    service,
		templates:  templates,
		validator:  validator.New(),
		loginLimit: loginLimit,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.With(h.limitLogin).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/dashboard", h.redirectToDashboard)
}

type loginForm struct {
	Mode       string `validate:"oneof=admin user"`
	Identifier string `validate:"max=254"`
	Password   string `validate:"max=128"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
	Error  string
}

var formFields = map[string]string{
	"identifier": "Identifier",
	"password":   "Password",
}

func (h *Handler) limitLogin(next http.Handler) http.Handler {
	if h.loginLimit <= 0 {
		return next
	}
	return httprate.Limit(h.loginLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			form := loginForm{Mode: modeFrom(r.PostFormValue("mode"))}
			h.renderLogin(w, r, http.StatusTooManyRequests, form, nil, "Too many login attempts. Please wait a minute and try again.")
		}),
	)(next)
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if sess := h.service.CurrentSession(r.Context()); sess.IsAuthenticated() {
		http.Redirect(w, r, DestinationFor(sess.Role), http.StatusSeeOther)
		return
	}
	form := loginForm{Mode: modeFrom(r.URL.Query().Get("mode"))}
	h.renderLogin(w, r, http.StatusOK, form, nil, "")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	form := loginForm{
		Mode:       strings.ToLower(strings.TrimSpace(r.PostFormValue("mode"))),
		Identifier: strings.TrimSpace(r.PostFormValue("identifier")),
		Password:   r.PostFormValue("password"),
	}
	if form.Mode == "" {
		form.Mode = string(VariantUser)
	}
	fieldErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fieldErrors[fe.Field()] = fieldMessage(fe)
			}
		}
		form.Mode = modeFrom(form.Mode)
		form.Password = ""
		h.renderLogin(w, r, http.StatusBadRequest, form, fieldErrors, "Please correct the highlighted fields.")
		return
	}

	variant := Variant(form.Mode)
	sess, err := h.service.Login(ctx, variant, Credentials{Identifier: form.Identifier, Password: form.Password})
	form.Password = ""
	if err != nil {
		status := http.StatusBadGateway
		message := NormalizeError(err)
		var validation *ValidationError
		var rejected *AuthenticationError
		switch {
		case errors.As(err, &validation):
			status = http.StatusBadRequest
			for _, field := range validation.Fields {
				fieldErrors[formFields[field]] = "This field is required."
			}
		case errors.As(err, &rejected):
			status = http.StatusUnauthorized
		case errors.Is(err, ErrNoStore):
			status = http.StatusInternalServerError
			message = FallbackMessage
		}
		if validation == nil {
			h.service.Record(ctx, h.event(r, audit.KindLoginFailed, variant, form.Identifier, session.Session{}, message))
		}
		h.renderLogin(w, r, status, form, fieldErrors, message)
		return
	}

	if st := shared.StorageFromContext(ctx); st != nil {
		st.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back, " + sess.Username + "."})
	}
	h.service.Record(ctx, h.event(r, audit.KindLogin, variant, form.Identifier, sess, ""))
	http.Redirect(w, r, DestinationFor(sess.Role), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	before := h.service.CurrentSession(ctx)
	h.service.Logout(ctx)
	if before.IsAuthenticated() {
		h.service.Record(ctx, h.event(r, audit.KindLogout, "", before.Username, before, ""))
		if st := shared.StorageFromContext(ctx); st != nil {
			st.ClearFlashes()
			st.AddFlash(shared.FlashMessage{Kind: "info", Message: "You have been logged out."})
		}
	}
	http.Redirect(w, r, PathLogin, http.StatusSeeOther)
}

func (h *Handler) redirectToDashboard(w http.ResponseWriter, r *http.Request) {
	sess := h.service.CurrentSession(r.Context())
	if !sess.IsAuthenticated() {
		http.Redirect(w, r, PathLogin, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, DestinationFor(sess.Role), http.StatusSeeOther)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, form loginForm, fieldErrors map[string]string, message string) {
	title := "Log in"
	if form.Mode == string(VariantAdmin) {
		title = "Admin login"
	}
	data := loginPageData{Form: form, Errors: fieldErrors, Error: message}
	if err := h.templates.RenderStatus(w, status, "pages/login.html", view.NewTemplateData(r, title, data)); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) event(r *http.Request, kind string, variant Variant, identifier string, sess session.Session, message string) audit.Event {
	return audit.Event{
		Kind:       kind,
		Variant:    string(variant),
		UserID:     sess.UserID,
		Username:   sess.Username,
		Role:       string(sess.Role),
		Identifier: identifier,
		BrowserID:  session.FromContext(r.Context()).ID(),
		RemoteAddr: clientIP(r),
		UserAgent:  r.UserAgent(),
		Message:    message,
		At:         time.Now(),
	}
}

func modeFrom(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), string(VariantAdmin)) {
		return string(VariantAdmin)
	}
	return string(VariantUser)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return "This value is too long."
	case "oneof":
		return "Unknown login mode."
	default:
		return "This value is invalid."
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
