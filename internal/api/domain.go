package api

import (
	"fmt"

	"github.com/JaimeStill/clerk/internal/config"
	"github.com/JaimeStill/clerk/internal/sessions"
	"github.com/JaimeStill/clerk/internal/templates"
	"github.com/JaimeStill/clerk/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Templates templates.System
	Sessions  sessions.System
}

// NewDomain creates all domain systems from the API runtime. Hosted
// sessions drive either the in-process template system or a remote
// collaborator, depending on the sessions backend.
func NewDomain(runtime *Runtime) (*Domain, error) {
	templatesSystem := templates.New(
		runtime.Storage,
		runtime.Assistant,
		runtime.Logger,
	)

	var backend workflow.Backend
	switch runtime.Sessions.Backend {
	case config.BackendRemote:
		backend = runtime.Client
	default:
		backend = templates.NewBackend(templatesSystem)
	}

	metrics, err := sessions.NewMetrics(runtime.Metrics)
	if err != nil {
		return nil, fmt.Errorf("register session metrics: %w", err)
	}

	sessionsSystem := sessions.New(
		backend,
		runtime.Store,
		runtime.Storage,
		runtime.Events,
		metrics,
		runtime.Logger,
		runtime.Pagination,
		runtime.Sessions.OperationTimeoutDuration(),
	)

	return &Domain{
		Templates: templatesSystem,
		Sessions:  sessionsSystem,
	}, nil
}
