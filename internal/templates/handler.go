package templates

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/clerk/internal/workflow"
	"github.com/JaimeStill/clerk/pkg/handlers"
	"github.com/JaimeStill/clerk/pkg/routes"
	"github.com/JaimeStill/clerk/pkg/storage"
)

// Handler provides HTTP endpoints for the template collaborator.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, and upload size limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "templates"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group for collaborator endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/assistant",
		Tags:        []string{"Assistant"},
		Description: "Template upload, placeholder conversation, and document generation",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/upload", Summary: "Upload a .docx template", Handler: h.Upload, Response: "UploadResponse"},
			{Method: "POST", Pattern: "/chat", Summary: "Answer one conversation turn", Handler: h.Chat,
				Request: "ChatRequest", Response: "ChatReply"},
			{Method: "POST", Pattern: "/generate", Summary: "Render the completed document", Handler: h.Generate,
				Request: "GenerateRequest"},
			{Method: "POST", Pattern: "/preview", Summary: "Preview the filled document as text", Handler: h.Preview,
				Request: "GenerateRequest", Response: "Preview"},
			{Method: "POST", Pattern: "/preview_html", Summary: "Preview the filled document as HTML", Handler: h.PreviewHTML,
				Request: "GenerateRequest", Response: "HTMLPreview"},
			{Method: "GET", Pattern: "/templates", Summary: "List stored templates", Handler: h.List,
				Query: []routes.Param{{Name: "max_results", Type: "integer"}}},
			{Method: "GET", Pattern: "/templates/{id}", Summary: "Find a template", Handler: h.Find, Response: "Template"},
			{Method: "DELETE", Pattern: "/templates/{id}", Summary: "Delete a template", Handler: h.Delete},
		},
	}
}

// Upload accepts a multipart form with a single "file" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
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

	t, err := h.sys.Upload(r.Context(), header.Filename, data)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, t.response())
}

// Chat answers one conversation turn.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req workflow.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	reply, err := h.sys.Chat(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, reply)
}

// Generate returns the filled template as a .docx attachment.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req workflow.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	art, err := h.sys.Generate(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondAttachment(w, art.Filename, art.ContentType, art.Data)
}

// Preview returns a text rendering of the filled template.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req workflow.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	preview, err := h.sys.Preview(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, preview)
}

// PreviewHTML returns an HTML rendering of the filled template.
func (h *Handler) PreviewHTML(w http.ResponseWriter, r *http.Request) {
	var req workflow.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	preview, err := h.sys.PreviewHTML(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, preview)
}

// List returns stored templates, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	maxResults, err := storage.ParseMaxResults(r.URL.Query().Get("max_results"), 0)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	summaries, err := h.sys.List(r.Context(), maxResults)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, summaries)
}

// Find returns a template and its placeholders by UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	t, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}

// Delete removes a template by UUID path parameter.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
