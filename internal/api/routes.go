package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/clerk/internal/config"
	"github.com/JaimeStill/clerk/pkg/openapi"
	"github.com/JaimeStill/clerk/pkg/routes"
)

// registerRoutes mounts every domain group on mux and serves the OpenAPI
// document built from the same groups at /openapi.json.
func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	maxUpload := cfg.API.MaxUploadSizeBytes()

	groups := []routes.Group{
		domain.Templates.Handler(maxUpload).Routes(),
		domain.Sessions.Handler(maxUpload).Routes(),
		newStorageHandler(runtime.Storage, runtime.Logger, cfg.Storage.MaxListSize).routes(),
	}

	routes.Register(mux, groups...)

	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)
	spec.Components.AddSchemas(domainSchemas())
	spec.AddGroups("", groups...)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return fmt.Errorf("marshal openapi spec: %w", err)
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(data))

	return nil
}
