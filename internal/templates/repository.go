package templates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/clerk/internal/assistant"
	"github.com/JaimeStill/clerk/internal/workflow"
	"github.com/JaimeStill/clerk/pkg/docx"
	"github.com/JaimeStill/clerk/pkg/storage"
)

const keyPrefix = "templates/"

type repo struct {
	storage   storage.System
	assistant *assistant.Assistant
	logger    *slog.Logger

	mu     sync.RWMutex
	cache  map[uuid.UUID]*Template
	latest uuid.UUID
}

// New creates a storage-backed template system implementing System.
func New(store storage.System, asst *assistant.Assistant, logger *slog.Logger) System {
	return &repo{
		storage:   store,
		assistant: asst,
		logger:    logger.With("system", "templates"),
		cache:     make(map[uuid.UUID]*Template),
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, maxUploadSize)
}

func (r *repo) Upload(ctx context.Context, filename string, data []byte) (*Template, error) {
	if !strings.EqualFold(filepath.Ext(filename), workflow.TemplateExtension) {
		return nil, ErrInvalidFile
	}

	placeholders, err := parse(data)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	key := buildStorageKey(id, sanitizeFilename(filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(data), docx.ContentType); err != nil {
		return nil, fmt.Errorf("upload template blob: %w", err)
	}

	t := &Template{
		ID:           id,
		Filename:     filepath.Base(filename),
		StorageKey:   key,
		SizeBytes:    int64(len(data)),
		UploadedAt:   time.Now().UTC(),
		Placeholders: placeholders,
	}

	r.mu.Lock()
	r.cache[id] = t
	r.latest = id
	r.mu.Unlock()

	r.logger.Info("template uploaded", "id", id, "filename", t.Filename, "placeholders", len(placeholders))
	return t, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Template, error) {
	r.mu.RLock()
	t, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	blobs, err := r.storage.List(ctx, keyPrefix+id.String()+"/", 1)
	if err != nil {
		return nil, fmt.Errorf("find template %s: %w", id, err)
	}
	if len(blobs) == 0 {
		return nil, ErrNotFound
	}

	data, err := storage.ReadAll(ctx, r.storage, blobs[0].Key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download template %s: %w", id, err)
	}

	placeholders, err := parse(data)
	if err != nil {
		return nil, err
	}

	_, filename, _ := parseStorageKey(blobs[0].Key)
	t = &Template{
		ID:           id,
		Filename:     filename,
		StorageKey:   blobs[0].Key,
		SizeBytes:    blobs[0].Size,
		UploadedAt:   blobs[0].LastModified,
		Placeholders: placeholders,
	}

	r.mu.Lock()
	r.cache[id] = t
	r.mu.Unlock()

	return t, nil
}

func (r *repo) List(ctx context.Context, maxResults int32) ([]Summary, error) {
	blobs, err := r.storage.List(ctx, keyPrefix, maxResults)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	summaries := make([]Summary, 0, len(blobs))
	for _, b := range blobs {
		id, filename, ok := parseStorageKey(b.Key)
		if !ok {
			continue
		}
		summaries = append(summaries, Summary{
			ID:         id,
			Filename:   filename,
			SizeBytes:  b.Size,
			UploadedAt: b.LastModified,
		})
	}

	slices.SortStableFunc(summaries, func(a, b Summary) int {
		return b.UploadedAt.Compare(a.UploadedAt)
	})

	return summaries, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	if err := r.storage.Delete(ctx, t.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete template blob: %w", err)
	}

	r.mu.Lock()
	delete(r.cache, id)
	if r.latest == id {
		r.latest = uuid.Nil
	}
	r.mu.Unlock()

	r.logger.Info("template deleted", "id", id)
	return nil
}

func (r *repo) Chat(ctx context.Context, req workflow.ChatRequest) (assistant.Reply, error) {
	t, err := r.resolve(ctx, req.TemplateID)
	if err != nil {
		return assistant.Reply{}, err
	}

	history := req.History
	if req.Message != "" {
		last := len(history) - 1
		if last < 0 || history[last] != (workflow.Turn{Role: workflow.RoleUser, Message: req.Message}) {
			history = append(slices.Clone(history), workflow.Turn{Role: workflow.RoleUser, Message: req.Message})
		}
	}

	reply := r.assistant.Respond(ctx, history, t.Placeholders)
	r.logger.Debug("chat turn",
		"template", t.ID,
		"filled", reply.FilledCount,
		"total", reply.TotalCount,
		"all_filled", reply.AllFilled,
	)
	return reply, nil
}

func (r *repo) Generate(ctx context.Context, req workflow.GenerateRequest) (workflow.Artifact, error) {
	t, data, _, err := r.fill(ctx, req)
	if err != nil {
		return workflow.Artifact{}, err
	}

	r.logger.Info("document generated", "template", t.ID, "size", len(data))
	return workflow.Artifact{
		Filename:    workflow.DefaultArtifactName,
		ContentType: docx.ContentType,
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (r *repo) Preview(ctx context.Context, req workflow.GenerateRequest) (Preview, error) {
	t, content, filled, err := r.filledContent(ctx, req)
	if err != nil {
		return Preview{}, err
	}

	return Preview{
		Preview:     docx.Preview(content),
		FilledCount: filled,
		TotalCount:  len(t.Placeholders),
	}, nil
}

func (r *repo) PreviewHTML(ctx context.Context, req workflow.GenerateRequest) (HTMLPreview, error) {
	t, content, filled, err := r.filledContent(ctx, req)
	if err != nil {
		return HTMLPreview{}, err
	}

	return HTMLPreview{
		HTML:        docx.HTML(content),
		FilledCount: filled,
		TotalCount:  len(t.Placeholders),
	}, nil
}

func (r *repo) filledContent(ctx context.Context, req workflow.GenerateRequest) (*Template, docx.Content, int, error) {
	t, data, filled, err := r.fill(ctx, req)
	if err != nil {
		return nil, docx.Content{}, 0, err
	}

	doc, err := docx.Open(data)
	if err != nil {
		return nil, docx.Content{}, 0, fmt.Errorf("open filled document: %w", err)
	}
	content, err := doc.Content()
	if err != nil {
		return nil, docx.Content{}, 0, fmt.Errorf("read filled document: %w", err)
	}
	return t, content, filled, nil
}

// fill renders the template with the values found in the request history.
// It returns the template, the filled package, and the number of values used.
func (r *repo) fill(ctx context.Context, req workflow.GenerateRequest) (*Template, []byte, int, error) {
	t, err := r.resolve(ctx, req.TemplateID)
	if err != nil {
		return nil, nil, 0, err
	}

	data, err := storage.ReadAll(ctx, r.storage, t.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, 0, ErrNotFound
		}
		return nil, nil, 0, fmt.Errorf("download template %s: %w", t.ID, err)
	}

	doc, err := docx.Open(data)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}

	values := assistant.ExtractValues(req.History, t.Placeholders)
	out, err := doc.Fill(ctx, values)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("fill template %s: %w", t.ID, err)
	}

	return t, out, len(values), nil
}

// resolve finds the template a request refers to. An empty ID selects the
// most recent upload.
func (r *repo) resolve(ctx context.Context, templateID string) (*Template, error) {
	if templateID != "" {
		id, err := uuid.Parse(templateID)
		if err != nil {
			return nil, ErrInvalidID
		}
		return r.Find(ctx, id)
	}

	r.mu.RLock()
	latest := r.latest
	r.mu.RUnlock()
	if latest != uuid.Nil {
		return r.Find(ctx, latest)
	}

	summaries, err := r.List(ctx, storage.MaxListCap)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, ErrNoTemplate
	}
	return r.Find(ctx, summaries[0].ID)
}

func parse(data []byte) ([]workflow.Placeholder, error) {
	doc, err := docx.Open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}

	content, err := doc.Content()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}

	names := docx.Placeholders(content)
	placeholders := make([]workflow.Placeholder, len(names))
	for i, name := range names {
		placeholders[i] = workflow.Placeholder{Name: name, Question: docx.Question(name)}
	}
	return placeholders, nil
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("%s%s/%s", keyPrefix, id, filename)
}

func parseStorageKey(key string) (uuid.UUID, string, bool) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return uuid.Nil, "", false
	}

	dir, file := path.Split(rest)
	id, err := uuid.Parse(strings.TrimSuffix(dir, "/"))
	if err != nil {
		return uuid.Nil, "", false
	}

	if name, err := url.PathUnescape(file); err == nil {
		file = name
	}
	return id, file, true
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "template.docx"
	}
	return url.PathEscape(name)
}
