package app

import (
	"log/slog"
	"net/http"

	"github.com/smartrental/rental-web/internal/view"
)

// pageHandler serves the pages that belong to no feature package.
type pageHandler struct {
	logger    *slog.Logger
	templates *view.Engine
}

func (p *pageHandler) home(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusOK, "pages/home.html", "Home")
}

func (p *pageHandler) unauthorized(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusForbidden, "pages/unauthorized.html", "Unauthorized")
}

func (p *pageHandler) notFound(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusNotFound, "pages/not_found.html", "Not Found")
}

func (p *pageHandler) render(w http.ResponseWriter, r *http.Request, status int, name, title string) {
	if err := p.templates.RenderStatus(w, status, name, view.NewTemplateData(r, title, nil)); err != nil {
		p.logger.Error("render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
