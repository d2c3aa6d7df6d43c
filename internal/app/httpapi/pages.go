package httpapi

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/logistiker/saleor-app/internal/httputil"
)

//go:embed web/templates/*.html web/assets/*
var webFS embed.FS

var indexTemplate = template.Must(template.ParseFS(webFS, "web/templates/index.html"))

type indexPage struct {
	Name          string
	Version       string
	About         string
	Installations int
}

func assetsHandler() http.Handler {
	sub, err := fs.Sub(webFS, "web/assets")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/assets/", http.FileServer(http.FS(sub)))
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	page := indexPage{
		Name:    h.manifest.Name,
		Version: h.manifest.Version,
		About:   h.manifest.About,
	}
	records, err := h.store.List(r.Context())
	if err != nil {
		h.log.WithContext(r.Context()).WithError(err).Error("list installations for index page")
		httputil.WriteErrorResponse(w, r, http.StatusInternalServerError, "Internal", "installation store unavailable", nil)
		return
	}
	page.Installations = len(records)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		h.log.WithContext(r.Context()).WithError(err).Error("render index page")
	}
}
