// Package sessions hosts workflow runs on the server. Each session owns a
// workflow.Machine; every committed operation is snapshotted to a Store and
// the completed document is kept in blob storage, so a session survives a
// restart and can be resumed from any replica.
package sessions

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/clerk/internal/workflow"
)

// Session is the API view of one workflow run.
type Session struct {
	ID           uuid.UUID              `json:"id"`
	Phase        workflow.Phase         `json:"phase"`
	TemplateID   string                 `json:"template_id,omitempty"`
	Filename     string                 `json:"filename,omitempty"`
	Placeholders []workflow.Placeholder `json:"placeholders"`
	Conversation []workflow.Turn        `json:"conversation"`
	Completed    bool                   `json:"completed"`
	Artifact     *ArtifactInfo          `json:"artifact,omitempty"`
	Status       workflow.Status        `json:"status"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// ArtifactInfo describes a completed document without its bytes.
type ArtifactInfo struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int       `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary is the list view of a session.
type Summary struct {
	ID               uuid.UUID      `json:"id"`
	Phase            workflow.Phase `json:"phase"`
	Filename         string         `json:"filename,omitempty"`
	PlaceholderCount int            `json:"placeholder_count"`
	TurnCount        int            `json:"turn_count"`
	Completed        bool           `json:"completed"`
	HasArtifact      bool           `json:"has_artifact"`
	Error            string         `json:"error,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Record is the persisted snapshot of a session.
type Record struct {
	ID               uuid.UUID
	Phase            workflow.Phase
	Filename         string
	TemplateID       string
	PlaceholderCount int
	TurnCount        int
	Completed        bool
	Error            string
	ArtifactKey      *string
	State            []byte
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewRecord snapshots state for id. Busy is never persisted.
func NewRecord(id uuid.UUID, state workflow.State, artifactKey string) (Record, error) {
	state.Status.Busy = false

	data, err := json.Marshal(state)
	if err != nil {
		return Record{}, fmt.Errorf("marshal session state: %w", err)
	}

	rec := Record{
		ID:               id,
		Phase:            state.Phase,
		TemplateID:       state.TemplateID,
		PlaceholderCount: len(state.Placeholders),
		TurnCount:        state.Log.Len(),
		Completed:        state.Completed,
		Error:            state.Status.Error,
		State:            data,
	}
	if state.File != nil {
		rec.Filename = state.File.Filename
	}
	if artifactKey != "" {
		rec.ArtifactKey = &artifactKey
	}
	return rec, nil
}

// Restore decodes the persisted workflow state. Artifact bytes live in blob
// storage and are not part of the snapshot.
func (r Record) Restore() (workflow.State, error) {
	state := workflow.NewState()
	if len(r.State) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(r.State, &state); err != nil {
		return workflow.State{}, fmt.Errorf("unmarshal session state: %w", err)
	}
	if state.Placeholders == nil {
		state.Placeholders = []workflow.Placeholder{}
	}
	return state, nil
}

// Summary returns the list view of the record.
func (r Record) Summary() Summary {
	return Summary{
		ID:               r.ID,
		Phase:            r.Phase,
		Filename:         r.Filename,
		PlaceholderCount: r.PlaceholderCount,
		TurnCount:        r.TurnCount,
		Completed:        r.Completed,
		HasArtifact:      r.ArtifactKey != nil,
		Error:            r.Error,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func newSession(id uuid.UUID, state workflow.State, createdAt, updatedAt time.Time) *Session {
	s := &Session{
		ID:           id,
		Phase:        state.Phase,
		TemplateID:   state.TemplateID,
		Placeholders: state.Placeholders,
		Conversation: state.Log.Turns(),
		Completed:    state.Completed,
		Status:       state.Status,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if s.Conversation == nil {
		s.Conversation = []workflow.Turn{}
	}
	if state.File != nil {
		s.Filename = state.File.Filename
	}
	if a := state.Artifact; a != nil {
		s.Artifact = &ArtifactInfo{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			SizeBytes:   a.Size(),
			CreatedAt:   a.CreatedAt,
		}
	}
	return s
}
