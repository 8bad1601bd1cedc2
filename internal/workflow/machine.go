package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// Machine owns one workflow run. Every entry point passes an admission
// check under the lock (busy gate first, then phase), releases the lock for
// the remote call, and re-acquires it to commit the coordinator's result.
// The busy flag stays set for the whole span, so a second call is rejected
// with ErrBusy rather than queued.
type Machine struct {
	mu       sync.Mutex
	backend  Backend
	state    State
	observer Observer
	logger   *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithObserver registers an observer for committed transitions and operations.
func WithObserver(o Observer) Option {
	return func(m *Machine) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithLogger sets the machine logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Machine in the Upload phase.
func New(b Backend, opts ...Option) *Machine {
	return Restore(b, NewState(), opts...)
}

// Restore creates a Machine from a previously captured state. A restored
// machine is never busy: an operation cannot survive the process that ran it.
func Restore(b Backend, s State, opts ...Option) *Machine {
	m := &Machine{
		backend:  b,
		state:    s.Clone(),
		observer: noopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if !m.state.Phase.Valid() {
		m.state.Phase = PhaseUpload
	}
	m.state.Status.Busy = false
	m.logger = m.logger.With("system", "workflow")

	return m
}

// State returns a snapshot of the current aggregate.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Phase returns the active phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Phase
}

// Status returns the busy/error signal.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Status
}

// Upload validates and submits the template. On success the run moves to
// Conversation with a single seeded assistant turn.
func (m *Machine) Upload(ctx context.Context, file UploadedFile) error {
	start := time.Now()

	s, err := m.admit(OpUpload, nil, PhaseUpload)
	if err != nil {
		return err
	}

	next, err := submitTemplate(ctx, m.backend, s, file)
	return m.commit(OpUpload, start, next, err)
}

// Send runs one chat turn. Whitespace-only input is a no-op. When the
// remote agent reports all placeholders filled, the artifact is generated
// within the same admission span and the run moves to Review.
func (m *Machine) Send(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return nil
	}

	start := time.Now()

	s, err := m.admit(OpSend, nil, PhaseConversation)
	if err != nil {
		return err
	}

	next, err := advanceConversation(ctx, m.backend, s, message)
	if err != nil || !next.Completed {
		return m.commit(OpSend, start, next, err)
	}

	m.report(OpSend, start, next.Phase, nil)

	genStart := time.Now()
	final, err := generateArtifact(ctx, m.backend, next)
	return m.commit(OpGenerate, genStart, final, err)
}

// Generate retries artifact generation after a completion signal whose
// generation failed. It is only admitted in Conversation once the remote
// agent has reported all placeholders filled.
func (m *Machine) Generate(ctx context.Context) error {
	start := time.Now()

	s, err := m.admit(OpGenerate, requireCompleted, PhaseConversation)
	if err != nil {
		return err
	}

	next, err := generateArtifact(ctx, m.backend, s)
	return m.commit(OpGenerate, start, next, err)
}

// Reset discards the run and returns to Upload. It is rejected while an
// operation is in flight.
func (m *Machine) Reset() error {
	m.mu.Lock()
	if m.state.Status.Busy {
		m.mu.Unlock()
		return ErrBusy
	}
	from := m.state.Phase
	m.state = NewState()
	m.mu.Unlock()

	m.logger.Info("workflow reset", "from", from)
	m.observer.Transition(from, PhaseUpload)
	m.observer.Operation(OpReset, 0, nil)
	return nil
}

func requireCompleted(s State) error {
	if !s.Completed {
		return ErrNothingToGenerate
	}
	return nil
}

func (m *Machine) admit(op Operation, check func(State) error, phases ...Phase) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Status.Busy {
		return State{}, ErrBusy
	}
	if !slices.Contains(phases, m.state.Phase) {
		return State{}, fmt.Errorf("%w: %s during %s", ErrInvalidPhase, op, m.state.Phase)
	}
	if check != nil {
		if err := check(m.state); err != nil {
			return State{}, err
		}
	}

	m.state.Status = Status{Busy: true}
	return m.state.Clone(), nil
}

func (m *Machine) commit(op Operation, start time.Time, next State, opErr error) error {
	m.mu.Lock()
	from := m.state.Phase

	if !from.CanTransition(next.Phase) && from != next.Phase {
		m.state.Status = Status{Error: fmt.Sprintf("illegal transition %s -> %s", from, next.Phase)}
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPhase, from, next.Phase)
	}

	next.Status = Status{}
	if opErr != nil {
		next.Status.Error = surface(op, opErr)
	}
	m.state = next
	m.mu.Unlock()

	if from != next.Phase {
		m.logger.Info("phase changed", "from", from, "to", next.Phase)
		m.observer.Transition(from, next.Phase)
	}
	m.report(op, start, next.Phase, opErr)

	return opErr
}

func (m *Machine) report(op Operation, start time.Time, phase Phase, err error) {
	elapsed := time.Since(start)
	if err != nil {
		m.logger.Warn("operation failed", "op", op, "phase", phase, "duration", elapsed, "error", err)
	} else {
		m.logger.Info("operation complete", "op", op, "phase", phase, "duration", elapsed)
	}
	m.observer.Operation(op, elapsed, err)
}

func surface(op Operation, err error) string {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		return "Please upload a .docx file"
	case errors.Is(err, ErrGeneration):
		return fmt.Sprintf("%s: %v", msgGenerateFailed, err)
	case op == OpUpload:
		return fmt.Sprintf("%s: %v", msgUploadFailed, err)
	case op == OpSend:
		return fmt.Sprintf("%s: %v", msgChatFailed, err)
	}
	return err.Error()
}
