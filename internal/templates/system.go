package templates

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/clerk/internal/assistant"
	"github.com/JaimeStill/clerk/internal/workflow"
)

// System defines the public contract for template collaborator operations.
// An empty template ID in a request selects the most recent upload.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Upload(ctx context.Context, filename string, data []byte) (*Template, error)
	Find(ctx context.Context, id uuid.UUID) (*Template, error)
	List(ctx context.Context, maxResults int32) ([]Summary, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Chat(ctx context.Context, req workflow.ChatRequest) (assistant.Reply, error)
	Generate(ctx context.Context, req workflow.GenerateRequest) (workflow.Artifact, error)
	Preview(ctx context.Context, req workflow.GenerateRequest) (Preview, error)
	PreviewHTML(ctx context.Context, req workflow.GenerateRequest) (HTMLPreview, error)
}
