package workflow

import (
	"context"
	"fmt"
	"time"
)

// DefaultArtifactName is used when the backend does not name the document.
const DefaultArtifactName = "completed_document.docx"

// generateArtifact requests the rendered document for the final log and
// moves the state into Review. A failure leaves the phase in Conversation
// with Completed still set, so the completion edge is not consumed.
func generateArtifact(ctx context.Context, b Backend, s State) (State, error) {
	art, err := b.Generate(ctx, GenerateRequest{
		TemplateID: s.TemplateID,
		History:    s.Log.Turns(),
	})
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if art.Filename == "" {
		art.Filename = DefaultArtifactName
	}
	if art.CreatedAt.IsZero() {
		art.CreatedAt = time.Now().UTC()
	}

	next := s.Clone()
	next.Artifact = &art
	next.Phase = PhaseReview

	return next, nil
}
