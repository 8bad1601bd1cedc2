// Package workflow implements the guided document-completion workflow:
// a phase machine (upload → conversation → review) that coordinates the
// template upload, the placeholder-driven dialogue and artifact generation
// against a remote Backend, while keeping the conversation log, busy gate
// and error signal consistent across calls.
package workflow

import (
	"errors"
	"net/http"
)

// Sentinel errors for workflow operations.
var (
	ErrInvalidFormat     = errors.New("please upload a .docx file")
	ErrTransport         = errors.New("remote call failed")
	ErrGeneration        = errors.New("failed to generate document")
	ErrBusy              = errors.New("another operation is in progress")
	ErrInvalidPhase      = errors.New("operation not allowed in current phase")
	ErrNothingToGenerate = errors.New("completion has not been signaled")
)

// Surfaced messages written to Status.Error.
const (
	msgUploadFailed   = "Failed to process document"
	msgChatFailed     = "Failed to send message"
	msgGenerateFailed = "Failed to generate document"
)

// MapHTTPStatus maps workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, ErrBusy), errors.Is(err, ErrInvalidPhase), errors.Is(err, ErrNothingToGenerate):
		return http.StatusConflict
	case errors.Is(err, ErrTransport), errors.Is(err, ErrGeneration):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
