// Package templates implements the template collaborator for Clerk.
// It stores uploaded .docx templates in blob storage, extracts their
// placeholders, answers chat turns through the assistant, and renders
// completed documents and previews.
package templates

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/clerk/internal/workflow"
)

// Template is an uploaded document together with its extracted placeholders.
type Template struct {
	ID           uuid.UUID              `json:"template_id"`
	Filename     string                 `json:"filename"`
	StorageKey   string                 `json:"storage_key"`
	SizeBytes    int64                  `json:"size_bytes"`
	UploadedAt   time.Time              `json:"uploaded_at"`
	Placeholders []workflow.Placeholder `json:"placeholders"`
}

// UploadResponse is returned by the upload endpoint.
type UploadResponse struct {
	TemplateID   uuid.UUID              `json:"template_id"`
	Filename     string                 `json:"filename"`
	Placeholders []workflow.Placeholder `json:"placeholders"`
	Count        int                    `json:"count"`
}

// Summary describes a stored template without reading its content.
type Summary struct {
	ID         uuid.UUID `json:"template_id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Preview is a plain-text rendering of a template filled from a conversation.
type Preview struct {
	Preview     string `json:"preview"`
	FilledCount int    `json:"filled_count"`
	TotalCount  int    `json:"total_count"`
}

// HTMLPreview is an HTML rendering of a template filled from a conversation.
type HTMLPreview struct {
	HTML        string `json:"html"`
	FilledCount int    `json:"filled_count"`
	TotalCount  int    `json:"total_count"`
}

func (t *Template) response() UploadResponse {
	return UploadResponse{
		TemplateID:   t.ID,
		Filename:     t.Filename,
		Placeholders: t.Placeholders,
		Count:        len(t.Placeholders),
	}
}
