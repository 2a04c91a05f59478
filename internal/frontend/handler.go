package frontend

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/features"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/security"
	"github.com/gin-gonic/gin"
)

// NewPageHandler serves the form page prefilled with defaults. It expects
// CSPMiddleware to run first so the page and the header share one nonce.
func NewPageHandler(tmpl *template.Template, catalogue features.CatalogueData, defaults map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce := security.GetNonce(c)
		if nonce == "" {
			slog.Warn("CSP nonce not found in context, generating new one")
			var err error
			nonce, err = security.GenerateNonce()
			if err != nil {
				errors.Respond(c, errors.NewInternalError("failed to generate nonce", err))
				return
			}
		}

		if err := RenderIndex(c, tmpl, PageData{Nonce: nonce, Catalogue: catalogue, Defaults: defaults}); err != nil {
			slog.Error("Failed to render index.html", "error", err, "path", c.Request.URL.Path)
			errors.Respond(c, errors.NewInternalError("failed to render page", err))
		}
	}
}

// NewAssetHandler serves the embedded /assets/ files
func NewAssetHandler(fsys fs.FS) gin.HandlerFunc {
	fileServer := http.FileServer(http.FS(fsys))

	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}
