package sessions

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/clerk/internal/workflow"
	"github.com/JaimeStill/clerk/pkg/pagination"
)

// System defines the public contract for hosted workflow runs. Operations
// that reach the machine return the updated session together with any
// workflow error, so callers can render both the failure and the state it
// left behind.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Create(ctx context.Context) (*Session, error)
	Find(ctx context.Context, id uuid.UUID) (*Session, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Summary], error)
	Delete(ctx context.Context, id uuid.UUID) error

	Upload(ctx context.Context, id uuid.UUID, file workflow.UploadedFile) (*Session, error)
	Send(ctx context.Context, id uuid.UUID, message string) (*Session, error)
	Generate(ctx context.Context, id uuid.UUID) (*Session, error)
	Reset(ctx context.Context, id uuid.UUID) (*Session, error)
	Artifact(ctx context.Context, id uuid.UUID) (workflow.Artifact, error)
}
