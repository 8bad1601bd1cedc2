package workflow

import (
	"context"
	"time"
)

// Backend is the remote collaborator reached at the three suspension points
// of a workflow run. Implementations must be safe for concurrent use by
// multiple machines; a single machine never has more than one call in flight.
type Backend interface {
	// Upload submits the template and returns its ordered placeholders.
	Upload(ctx context.Context, file UploadedFile) (UploadResult, error)
	// Chat advances the conversation. History includes the new user turn.
	Chat(ctx context.Context, req ChatRequest) (ChatReply, error)
	// Generate renders the completed document from the final log.
	Generate(ctx context.Context, req GenerateRequest) (Artifact, error)
}

// Operation names a machine entry point.
type Operation string

const (
	OpUpload   Operation = "upload"
	OpSend     Operation = "send"
	OpGenerate Operation = "generate"
	OpReset    Operation = "reset"
)

// Observer receives machine events after state has been committed.
// Calls happen outside the machine lock, in commit order.
type Observer interface {
	Transition(from, to Phase)
	Operation(op Operation, elapsed time.Duration, err error)
}

// Observers fans events out to each non-nil observer in order.
type Observers []Observer

func (o Observers) Transition(from, to Phase) {
	for _, obs := range o {
		if obs != nil {
			obs.Transition(from, to)
		}
	}
}

func (o Observers) Operation(op Operation, elapsed time.Duration, err error) {
	for _, obs := range o {
		if obs != nil {
			obs.Operation(op, elapsed, err)
		}
	}
}

type noopObserver struct{}

func (noopObserver) Transition(Phase, Phase)                   {}
func (noopObserver) Operation(Operation, time.Duration, error) {}
