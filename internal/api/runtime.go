package api

import (
	"github.com/JaimeStill/clerk/internal/assistant"
	"github.com/JaimeStill/clerk/internal/client"
	"github.com/JaimeStill/clerk/internal/config"
	"github.com/JaimeStill/clerk/internal/infrastructure"
	"github.com/JaimeStill/clerk/internal/sessions"
	"github.com/JaimeStill/clerk/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Assistant *assistant.Assistant
	Client    *client.Client
	Store     sessions.Store
	Sessions  config.SessionsConfig

	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	logger := infra.Logger.With("module", "api")

	var phraser assistant.Phraser
	if cfg.Assistant.Enabled() {
		phraser = assistant.NewOpenAI(cfg.Assistant.Options(), logger)
	}

	var store sessions.Store
	if infra.Database != nil {
		store = sessions.NewPostgresStore(infra.Database.Connection(), cfg.API.Pagination)
	} else {
		store = sessions.NewMemoryStore(cfg.API.Pagination)
	}

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
			Events:    infra.Events,
			Metrics:   infra.Metrics,
		},
		Assistant:  assistant.New(phraser, logger),
		Client:     client.New(cfg.Client.BaseURL, cfg.Client.TimeoutDuration(), logger),
		Store:      store,
		Sessions:   cfg.Sessions,
		Pagination: cfg.API.Pagination,
	}
}
