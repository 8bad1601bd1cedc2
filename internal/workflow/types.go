package workflow

import (
	"path/filepath"
	"strings"
	"time"
)

// TemplateExtension is the only template container format the workflow accepts.
const TemplateExtension = ".docx"

// Phase identifies the active step of a workflow run.
type Phase string

// Workflow phases. Exactly one is active at a time.
const (
	PhaseUpload       Phase = "upload"
	PhaseConversation Phase = "conversation"
	PhaseReview       Phase = "review"
)

var allowedTransitions = map[Phase]map[Phase]struct{}{
	PhaseUpload: {
		PhaseConversation: {},
		PhaseUpload:       {},
	},
	PhaseConversation: {
		PhaseReview: {},
		PhaseUpload: {},
	},
	PhaseReview: {
		PhaseUpload: {},
	},
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := allowedTransitions[p]
	return ok
}

// CanTransition reports whether moving from p to next is legal.
// Every phase may return to Upload through a reset.
func (p Phase) CanTransition(next Phase) bool {
	_, ok := allowedTransitions[p][next]
	return ok
}

// Placeholder is a single blank the template requires filled.
type Placeholder struct {
	Name     string `json:"name"`
	Question string `json:"question"`
}

// UploadedFile is the user-supplied template for one workflow run.
type UploadedFile struct {
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
}

// Validate enforces the template format constraint. It is a purely local check.
func (f UploadedFile) Validate() error {
	if f.Filename == "" {
		return ErrInvalidFormat
	}
	if !strings.EqualFold(filepath.Ext(f.Filename), TemplateExtension) {
		return ErrInvalidFormat
	}
	return nil
}

// Artifact is the completed document produced on the transition into Review.
type Artifact struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Size returns the artifact payload length in bytes.
func (a *Artifact) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// Status is the shared busy/error signal rendered by the presentation layer.
type Status struct {
	Busy  bool   `json:"busy"`
	Error string `json:"error,omitempty"`
}

// State is the aggregate owned by a Machine. Coordinators receive a copy,
// and return the updated copy on success.
type State struct {
	Phase        Phase         `json:"phase"`
	TemplateID   string        `json:"template_id,omitempty"`
	File         *UploadedFile `json:"file,omitempty"`
	Placeholders []Placeholder `json:"placeholders"`
	Log          Log           `json:"conversation"`
	Artifact     *Artifact     `json:"artifact,omitempty"`
	Status       Status        `json:"status"`

	// Completed records that the remote agent signaled all_filled. It stays
	// set while Conversation waits on a generation retry.
	Completed bool `json:"completed"`
}

// NewState returns the initial Upload-phase state.
func NewState() State {
	return State{
		Phase:        PhaseUpload,
		Placeholders: []Placeholder{},
	}
}

// Clone returns a copy whose slices can be modified without affecting s.
func (s State) Clone() State {
	c := s
	c.Placeholders = append([]Placeholder{}, s.Placeholders...)
	c.Log = s.Log.clone()
	if s.File != nil {
		f := *s.File
		c.File = &f
	}
	if s.Artifact != nil {
		a := *s.Artifact
		c.Artifact = &a
	}
	return c
}

// UploadResult is the Upload operation response.
type UploadResult struct {
	TemplateID   string        `json:"template_id,omitempty"`
	Filename     string        `json:"filename,omitempty"`
	Placeholders []Placeholder `json:"placeholders"`
}

// ChatRequest carries one user message and the full log including that message.
type ChatRequest struct {
	TemplateID string `json:"template_id,omitempty"`
	Message    string `json:"message"`
	History    []Turn `json:"conversation_history"`
}

// ChatReply is the remote agent's answer to a ChatRequest.
type ChatReply struct {
	Response  string `json:"response"`
	AllFilled bool   `json:"all_filled"`
}

// GenerateRequest carries the final log used to render the artifact.
type GenerateRequest struct {
	TemplateID string `json:"template_id,omitempty"`
	History    []Turn `json:"conversation_history"`
}
