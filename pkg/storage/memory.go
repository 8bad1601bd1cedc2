package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/clerk/pkg/lifecycle"
)

type memoryBlob struct {
	data        []byte
	contentType string
	modified    time.Time
}

// Memory is a process-local System for development and tests.
type Memory struct {
	mu      sync.RWMutex
	blobs   map[string]memoryBlob
	maxList int32
	logger  *slog.Logger
}

// NewMemory creates an empty in-memory store. cfg may be nil.
func NewMemory(cfg *Config, logger *slog.Logger) *Memory {
	maxList := MaxListCap
	if cfg != nil && cfg.MaxListSize > 0 {
		maxList = cfg.MaxListSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Memory{
		blobs:   make(map[string]memoryBlob),
		maxList: maxList,
		logger:  logger.With("system", "storage", "provider", ProviderMemory),
	}
}

func (m *Memory) Start(lc *lifecycle.Coordinator) error {
	m.logger.Info("starting storage system")
	return nil
}

func (m *Memory) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = memoryBlob{
		data:        data,
		contentType: contentType,
		modified:    time.Now().UTC(),
	}
	return nil
}

func (m *Memory) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return ErrNotFound
	}
	delete(m.blobs, key)
	return nil
}

func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[key]
	return ok, nil
}

// List returns matching blobs ordered by key.
func (m *Memory) List(ctx context.Context, prefix string, maxResults int32) ([]Blob, error) {
	n := limit(maxResults, m.maxList)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var blobs []Blob
	for key, b := range m.blobs {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		blobs = append(blobs, Blob{
			Key:          key,
			ContentType:  b.contentType,
			Size:         int64(len(b.data)),
			LastModified: b.modified,
		})
	}

	sort.Slice(blobs, func(i, j int) bool { return blobs[i].Key < blobs[j].Key })
	if len(blobs) > int(n) {
		blobs = blobs[:n]
	}
	return blobs, nil
}
