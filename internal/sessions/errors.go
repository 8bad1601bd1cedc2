package sessions

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/clerk/internal/client"
	"github.com/JaimeStill/clerk/internal/templates"
	"github.com/JaimeStill/clerk/internal/workflow"
)

// Domain errors for session operations.
var (
	ErrNotFound       = errors.New("session not found")
	ErrDuplicate      = errors.New("session already exists")
	ErrInvalidID      = errors.New("invalid session id")
	ErrInvalidFile    = errors.New("file required")
	ErrFileTooLarge   = errors.New("file exceeds maximum upload size")
	ErrInvalidRequest = errors.New("invalid request body")
	ErrNoArtifact     = errors.New("no completed document")
)

// MapHTTPStatus maps session, collaborator, and workflow errors to HTTP
// status codes. A collaborator rejection of the caller's input keeps its
// 4xx status instead of surfacing as a gateway failure.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoArtifact):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidFile), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	}

	var se *client.StatusError
	if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
		return se.Code
	}
	if status := templates.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}

	return workflow.MapHTTPStatus(err)
}
