package sessions

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/clerk/internal/workflow"
	"github.com/JaimeStill/clerk/pkg/handlers"
	"github.com/JaimeStill/clerk/pkg/pagination"
	"github.com/JaimeStill/clerk/pkg/routes"
)

// Handler provides HTTP endpoints for hosted workflow sessions.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a Handler.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "sessions"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// MessageRequest is the body of a conversation turn.
type MessageRequest struct {
	Message string `json:"message"`
}

// OperationResponse carries the session after an operation. Error is set
// when the operation failed but still left a committed state behind.
type OperationResponse struct {
	Session *Session `json:"session"`
	Error   string   `json:"error,omitempty"`
}

var listParams = []routes.Param{
	{Name: "page", Type: "integer"},
	{Name: "page_size", Type: "integer"},
	{Name: "search", Type: "string", Description: "Matches the template filename"},
	{Name: "sort", Type: "string", Description: "Comma-separated fields, prefix - for descending"},
	{Name: "phase", Type: "string"},
	{Name: "filename", Type: "string"},
	{Name: "updated_since", Type: "string", Description: "RFC 3339 timestamp"},
}

// Routes returns the route group for session endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/sessions",
		Tags:        []string{"Sessions"},
		Description: "Server-hosted workflow runs",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Summary: "List sessions", Handler: h.List, Response: "SessionPage",
				Query: listParams},
			{Method: "POST", Pattern: "", Summary: "Start a session", Handler: h.Create, Response: "Session"},
			{Method: "GET", Pattern: "/{id}", Summary: "Find a session", Handler: h.Find, Response: "Session"},
			{Method: "DELETE", Pattern: "/{id}", Summary: "Delete a session", Handler: h.Delete},
			{Method: "POST", Pattern: "/{id}/upload", Summary: "Upload the session template", Handler: h.Upload, Response: "OperationResponse"},
			{Method: "POST", Pattern: "/{id}/messages", Summary: "Send a conversation message", Handler: h.Send,
				Request: "MessageRequest", Response: "OperationResponse"},
			{Method: "POST", Pattern: "/{id}/generate", Summary: "Retry document generation", Handler: h.Generate, Response: "OperationResponse"},
			{Method: "POST", Pattern: "/{id}/reset", Summary: "Return the session to upload", Handler: h.Reset, Response: "OperationResponse"},
			{Method: "GET", Pattern: "/{id}/artifact", Summary: "Download the completed document", Handler: h.Artifact},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	s, err := h.sys.Create(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, s)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	s, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Upload accepts a multipart form with a single "file" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	s, err := h.sys.Upload(r.Context(), id, workflow.UploadedFile{Filename: header.Filename, Data: data})
	h.respondOperation(w, s, err)
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	s, err := h.sys.Send(r.Context(), id, req.Message)
	h.respondOperation(w, s, err)
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	s, err := h.sys.Generate(r.Context(), id)
	h.respondOperation(w, s, err)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	s, err := h.sys.Reset(r.Context(), id)
	h.respondOperation(w, s, err)
}

func (h *Handler) Artifact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	a, err := h.sys.Artifact(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondAttachment(w, a.Filename, a.ContentType, a.Data)
}

// respondOperation writes the committed session. An operation that failed
// after admission still returns the session so the caller can render the
// surfaced error; only rejections without a session are plain errors.
func (h *Handler) respondOperation(w http.ResponseWriter, s *Session, err error) {
	if s == nil {
		if err == nil {
			err = errors.New("operation returned no session")
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if err != nil {
		status := MapHTTPStatus(err)
		h.logger.Warn("operation failed", "session", s.ID, "status", status, "error", err)
		handlers.RespondJSON(w, status, OperationResponse{Session: s, Error: err.Error()})
		return
	}

	handlers.RespondJSON(w, http.StatusOK, OperationResponse{Session: s})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
