package templates

import (
	"errors"
	"net/http"
)

// Domain errors for template operations.
var (
	ErrNotFound        = errors.New("template not found")
	ErrNoTemplate      = errors.New("no document uploaded")
	ErrInvalidFile     = errors.New("only .docx files are supported")
	ErrInvalidTemplate = errors.New("file is not a valid .docx document")
	ErrInvalidID       = errors.New("invalid template id")
	ErrInvalidRequest  = errors.New("invalid request body")
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps template domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoTemplate),
		errors.Is(err, ErrInvalidFile),
		errors.Is(err, ErrInvalidTemplate),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
