// Package site renders the landing page listing the region catalog.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/okian/relocator/internal/domain/catalog"
	"github.com/okian/relocator/internal/domain/model"
)

// ErrRender is returned when the landing page cannot be rendered.
var ErrRender = errors.New("landing page render failed")

//go:embed static/index.html.tmpl
var staticFS embed.FS

var indexTmpl = template.Must(template.ParseFS(staticFS, "static/index.html.tmpl"))

// CatalogSource yields the current catalog snapshot.
type CatalogSource interface {
	Catalog() *catalog.Catalog
}

// RootHandler serves GET / with the regions of the current catalog.
type RootHandler struct {
	src   CatalogSource
	brand string
}

// NewRootHandler creates a RootHandler. An empty brand defaults to "Relocator".
func NewRootHandler(src CatalogSource, brand string) *RootHandler {
	if brand == "" {
		brand = "Relocator"
	}
	return &RootHandler{src: src, brand: brand}
}

// Register attaches the landing page to mux.
func Register(_ context.Context, mux *http.ServeMux, h *RootHandler) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /{$}", h.HandleRoot)
}

// HandleRoot renders the page into a buffer before writing it.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := h.render(&buf); err != nil {
		http.Error(w, ErrRender.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (h *RootHandler) render(buf *bytes.Buffer) error {
	data := struct {
		Brand   string
		Regions []model.Region
	}{Brand: h.brand, Regions: h.src.Catalog().All()}
	if err := indexTmpl.Execute(buf, data); err != nil {
		return errors.Join(ErrRender, err)
	}
	return nil
}
