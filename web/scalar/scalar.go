// Package scalar serves the Scalar API reference for the generated OpenAPI document.
package scalar

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/JaimeStill/clerk/pkg/module"
)

//go:embed index.html
var staticFS embed.FS

// NewModule creates a module that serves the API reference UI at basePath,
// rendering the OpenAPI document found at specURL.
func NewModule(basePath, title, specURL string) *module.Module {
	router := buildRouter(title, specURL)
	return module.New(basePath, router)
}

func buildRouter(title, specURL string) http.Handler {
	mux := http.NewServeMux()

	tmpl := template.Must(template.ParseFS(staticFS, "index.html"))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		tmpl.Execute(w, map[string]string{
			"Title":   title,
			"SpecURL": specURL,
		})
	})

	return mux
}
