package sessions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/clerk/internal/workflow"
	"github.com/JaimeStill/clerk/pkg/events"
	"github.com/JaimeStill/clerk/pkg/pagination"
	"github.com/JaimeStill/clerk/pkg/storage"
)

const keyPrefix = "sessions/"

// entry is a live session. persistMu orders snapshot writes so the store
// always ends with the latest machine state. A deleted entry is never saved
// again.
type entry struct {
	machine *workflow.Machine

	persistMu   sync.Mutex
	deleted     bool
	artifactKey string
	artifactAt  time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

type repo struct {
	backend    workflow.Backend
	store      Store
	blobs      storage.System
	publisher  events.Publisher
	metrics    *Metrics
	logger     *slog.Logger
	pagination pagination.Config
	timeout    time.Duration

	mu   sync.Mutex
	live map[uuid.UUID]*entry
}

// New creates a session system implementing System. timeout bounds each
// remote call; zero leaves calls unbounded.
func New(
	backend workflow.Backend,
	store Store,
	blobs storage.System,
	publisher events.Publisher,
	metrics *Metrics,
	logger *slog.Logger,
	pagination pagination.Config,
	timeout time.Duration,
) System {
	return &repo{
		backend:    backend,
		store:      store,
		blobs:      blobs,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger.With("system", "sessions"),
		pagination: pagination,
		timeout:    timeout,
		live:       make(map[uuid.UUID]*entry),
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) Create(ctx context.Context) (*Session, error) {
	id := uuid.New()

	e := r.attach(id, workflow.NewState())
	s, err := r.persist(ctx, id, e)
	if err != nil {
		r.detach(id)
		return nil, err
	}

	r.publish(SubjectCreated, Event{SessionID: id, To: workflow.PhaseUpload, At: s.CreatedAt})
	r.logger.Info("session created", "id", id)
	return s, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Session, error) {
	e, err := r.entry(ctx, id)
	if err != nil {
		return nil, err
	}

	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	return newSession(id, e.machine.State(), e.createdAt, e.updatedAt), nil
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Summary], error) {
	records, err := r.store.List(ctx, page, filters)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, len(records.Data))
	for i, rec := range records.Data {
		summaries[i] = rec.Summary()
	}

	result := pagination.NewPageResult(summaries, records.Total, records.Page, records.PageSize)
	return &result, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := r.entry(ctx, id)
	if err != nil {
		return err
	}

	e.persistMu.Lock()
	if e.machine.Status().Busy {
		e.persistMu.Unlock()
		return workflow.ErrBusy
	}
	if err := r.store.Delete(ctx, id); err != nil {
		e.persistMu.Unlock()
		return err
	}
	e.deleted = true
	artifactKey := e.artifactKey
	e.persistMu.Unlock()

	r.detach(id)

	if artifactKey != "" {
		r.deleteBlob(ctx, artifactKey)
	}

	r.publish(SubjectDeleted, Event{SessionID: id, At: time.Now().UTC()})
	r.logger.Info("session deleted", "id", id)
	return nil
}

func (r *repo) Upload(ctx context.Context, id uuid.UUID, file workflow.UploadedFile) (*Session, error) {
	return r.run(ctx, id, func(ctx context.Context, m *workflow.Machine) error {
		return m.Upload(ctx, file)
	})
}

// Send admits one user message. A blank message changes nothing, so the
// snapshot is left as it is.
func (r *repo) Send(ctx context.Context, id uuid.UUID, message string) (*Session, error) {
	if strings.TrimSpace(message) == "" {
		return r.Find(ctx, id)
	}
	return r.run(ctx, id, func(ctx context.Context, m *workflow.Machine) error {
		return m.Send(ctx, message)
	})
}

func (r *repo) Generate(ctx context.Context, id uuid.UUID) (*Session, error) {
	return r.run(ctx, id, func(ctx context.Context, m *workflow.Machine) error {
		return m.Generate(ctx)
	})
}

func (r *repo) Reset(ctx context.Context, id uuid.UUID) (*Session, error) {
	return r.run(ctx, id, func(_ context.Context, m *workflow.Machine) error {
		return m.Reset()
	})
}

func (r *repo) Artifact(ctx context.Context, id uuid.UUID) (workflow.Artifact, error) {
	e, err := r.entry(ctx, id)
	if err != nil {
		return workflow.Artifact{}, err
	}

	a := e.machine.State().Artifact
	if a == nil || len(a.Data) == 0 {
		return workflow.Artifact{}, ErrNoArtifact
	}
	return *a, nil
}

// run executes one machine operation and persists the outcome. The remote
// call is detached from the request context: once admitted, an operation
// always commits, even if the HTTP client goes away. Rejections (busy, wrong
// phase) leave the state untouched and skip persistence.
func (r *repo) run(ctx context.Context, id uuid.UUID, op func(context.Context, *workflow.Machine) error) (*Session, error) {
	e, err := r.entry(ctx, id)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := r.operationContext(ctx)
	defer cancel()

	opErr := op(opCtx, e.machine)
	if rejected(opErr) {
		return nil, opErr
	}

	s, err := r.persist(context.WithoutCancel(ctx), id, e)
	if err != nil {
		return nil, err
	}
	return s, opErr
}

func (r *repo) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if r.timeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, r.timeout)
}

func rejected(err error) bool {
	return errors.Is(err, workflow.ErrBusy) ||
		errors.Is(err, workflow.ErrInvalidPhase) ||
		errors.Is(err, workflow.ErrNothingToGenerate)
}

// persist snapshots the machine's current state. A new artifact is written
// to blob storage before the row that references it; a cleared artifact is
// removed after.
func (r *repo) persist(ctx context.Context, id uuid.UUID, e *entry) (*Session, error) {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	if e.deleted {
		return nil, ErrNotFound
	}

	state := e.machine.State()
	staleKey := ""

	switch a := state.Artifact; {
	case a != nil && len(a.Data) > 0 && !a.CreatedAt.Equal(e.artifactAt):
		key := buildArtifactKey(id, a.Filename)
		if err := r.blobs.Upload(ctx, key, bytes.NewReader(a.Data), a.ContentType); err != nil {
			return nil, fmt.Errorf("upload artifact: %w", err)
		}
		if e.artifactKey != "" && e.artifactKey != key {
			staleKey = e.artifactKey
		}
		e.artifactKey, e.artifactAt = key, a.CreatedAt
	case a == nil && e.artifactKey != "":
		staleKey = e.artifactKey
		e.artifactKey, e.artifactAt = "", time.Time{}
	}

	rec, err := NewRecord(id, state, e.artifactKey)
	if err != nil {
		return nil, err
	}

	saved, err := r.store.Save(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("save session %s: %w", id, err)
	}
	e.createdAt, e.updatedAt = saved.CreatedAt, saved.UpdatedAt

	if staleKey != "" {
		r.deleteBlob(ctx, staleKey)
	}

	return newSession(id, state, saved.CreatedAt, saved.UpdatedAt), nil
}

// entry returns the live session, restoring it from the store on first use.
func (r *repo) entry(ctx context.Context, id uuid.UUID) (*entry, error) {
	r.mu.Lock()
	e, ok := r.live[id]
	r.mu.Unlock()
	if ok {
		return e, nil
	}

	rec, err := r.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	state, err := rec.Restore()
	if err != nil {
		return nil, err
	}

	var artifactKey string
	if rec.ArtifactKey != nil && state.Artifact != nil {
		artifactKey = *rec.ArtifactKey
		data, err := storage.ReadAll(ctx, r.blobs, artifactKey)
		if err != nil {
			r.logger.Warn("artifact unavailable", "id", id, "key", artifactKey, "error", err)
		}
		state.Artifact.Data = data
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.live[id]; ok {
		return e, nil
	}

	e = r.newEntry(id, state)
	e.createdAt, e.updatedAt = rec.CreatedAt, rec.UpdatedAt
	if artifactKey != "" {
		e.artifactKey, e.artifactAt = artifactKey, state.Artifact.CreatedAt
	}
	r.live[id] = e

	r.logger.Info("session restored", "id", id, "phase", state.Phase)
	return e, nil
}

func (r *repo) attach(id uuid.UUID, state workflow.State) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.newEntry(id, state)
	r.live[id] = e
	return e
}

func (r *repo) detach(id uuid.UUID) {
	r.mu.Lock()
	delete(r.live, id)
	r.mu.Unlock()
}

func (r *repo) newEntry(id uuid.UUID, state workflow.State) *entry {
	logger := r.logger.With("session", id)
	obs := &observer{id: id, metrics: r.metrics, publisher: r.publisher, logger: logger}
	return &entry{
		machine: workflow.Restore(r.backend, state,
			workflow.WithObserver(obs),
			workflow.WithLogger(logger),
		),
	}
}

func (r *repo) deleteBlob(ctx context.Context, key string) {
	if err := r.blobs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.logger.Warn("artifact delete failed", "key", key, "error", err)
	}
}

func (r *repo) publish(subject string, e Event) {
	if err := r.publisher.Publish(context.Background(), subject, e); err != nil {
		r.logger.Debug("event publish failed", "subject", subject, "error", err)
	}
}

// buildArtifactKey places each generation under its own timestamped path
// so a regenerated document never overwrites the one a row still points at.
func buildArtifactKey(id uuid.UUID, filename string) string {
	if filename == "" {
		filename = workflow.DefaultArtifactName
	}
	return fmt.Sprintf("%s%s/%d/%s", keyPrefix, id, time.Now().UnixNano(), url.PathEscape(filename))
}
