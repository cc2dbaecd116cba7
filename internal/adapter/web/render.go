package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/couchcryptid/site-safety-desk/internal/desk"
	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Raw HTML in catalog markdown is escaped; WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var pageFiles = map[domain.Page]string{
	domain.PageLogin:        "templates/login.html",
	domain.PageFieldManager: "templates/field.html",
	domain.PageHQDashboard:  "templates/dashboard.html",
}

var funcs = template.FuncMap{
	"markdown": func(md string) template.HTML {
		var buf bytes.Buffer
		if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(md)) //nolint:gosec // escaped fallback
		}
		return template.HTML(buf.String()) //nolint:gosec // goldmark escapes raw HTML
	},
	"speed": func(v float64) string { return fmt.Sprintf("%.1f", v) },
}

// pages holds one template set per page, each layered on the shared layout.
type pages struct {
	byPage map[domain.Page]*template.Template
}

func parsePages() (*pages, error) {
	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	p := &pages{byPage: make(map[domain.Page]*template.Template, len(pageFiles))}
	for page, file := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		t, err := clone.ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		p.byPage[page] = t
	}
	return p, nil
}

type pageData struct {
	desk.View
	CSRFField template.HTML
}

// render buffers the page so a template error never leaves a half-written
// response.
func (p *pages) render(w http.ResponseWriter, r *http.Request, v desk.View, logger *slog.Logger) {
	t, ok := p.byPage[v.Page]
	if !ok {
		logger.Error("no template for page", "page", v.Page.String())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, pageData{View: v, CSRFField: csrf.TemplateField(r)}); err != nil {
		logger.Error("render failed", "page", v.Page.String(), "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w) //nolint:errcheck // client went away
}
