package sessions

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/clerk/internal/workflow"
	"github.com/JaimeStill/clerk/pkg/events"
)

// Event subjects, relative to the configured prefix.
const (
	SubjectCreated    = "sessions.created"
	SubjectTransition = "sessions.transition"
	SubjectOperation  = "sessions.operation"
	SubjectDeleted    = "sessions.deleted"
)

// Event is the payload published for session lifecycle changes.
type Event struct {
	SessionID  uuid.UUID          `json:"session_id"`
	From       workflow.Phase     `json:"from,omitempty"`
	To         workflow.Phase     `json:"to,omitempty"`
	Operation  workflow.Operation `json:"operation,omitempty"`
	DurationMs int64              `json:"duration_ms,omitempty"`
	Error      string             `json:"error,omitempty"`
	At         time.Time          `json:"at"`
}

// observer forwards one session's machine events to metrics and the bus.
type observer struct {
	id        uuid.UUID
	metrics   *Metrics
	publisher events.Publisher
	logger    *slog.Logger
}

func (o *observer) Transition(from, to workflow.Phase) {
	o.metrics.transition(from, to)
	o.publish(SubjectTransition, Event{
		SessionID: o.id,
		From:      from,
		To:        to,
		At:        time.Now().UTC(),
	})
}

func (o *observer) Operation(op workflow.Operation, elapsed time.Duration, err error) {
	o.metrics.operation(op, elapsed, err)

	e := Event{
		SessionID:  o.id,
		Operation:  op,
		DurationMs: elapsed.Milliseconds(),
		At:         time.Now().UTC(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	o.publish(SubjectOperation, e)
}

func (o *observer) publish(subject string, e Event) {
	if err := o.publisher.Publish(context.Background(), subject, e); err != nil {
		o.logger.Debug("event publish failed", "subject", subject, "error", err)
	}
}
