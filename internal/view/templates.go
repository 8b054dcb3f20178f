package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/smartrental/rental-web/internal/session"
	"github.com/smartrental/rental-web/internal/shared"
	"github.com/smartrental/rental-web/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	Flash       *shared.FlashMessage
	CurrentPath string
	Session     session.Session
	Data        any
}

// NewTemplateData collects the per-request values every page needs. The
// pending flash message, if any, is consumed.
func NewTemplateData(r *http.Request, title string, data any) TemplateData {
	var flash *shared.FlashMessage
	if st := shared.StorageFromContext(r.Context()); st != nil {
		flash = st.PopFlash()
	}
	return TemplateData{
		Title:       title,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Session:     session.FromContext(r.Context()).Current(),
		Data:        data,
	}
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"roleLabel": func(role session.Role) string {
			r := strings.TrimSpace(string(role))
			if r == "" {
				return "Guest"
			}
			// A Caser keeps state, so each call gets its own.
			return cases.Title(language.English).String(r)
		},
		"orDash": func(s string) string {
			if strings.TrimSpace(s) == "" {
				return "-"
			}
			return s
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData and status 200.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus executes a named template and writes it with status.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
