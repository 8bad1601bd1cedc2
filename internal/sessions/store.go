package sessions

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/clerk/pkg/pagination"
	"github.com/JaimeStill/clerk/pkg/query"
)

// Store persists session snapshots.
type Store interface {
	// Save inserts or replaces the snapshot and returns it with timestamps set.
	Save(ctx context.Context, rec Record) (Record, error)
	Find(ctx context.Context, id uuid.UUID) (Record, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (pagination.PageResult[Record], error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Filters contains optional filtering criteria for session queries.
// Phase is an exact match, Filename a case-insensitive contains match, and
// UpdatedSince a lower bound on the last update.
type Filters struct {
	Phase        *string    `json:"phase,omitempty"`
	Filename     *string    `json:"filename,omitempty"`
	UpdatedSince *time.Time `json:"updated_since,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Phase", f.Phase).
		WhereContains("Filename", f.Filename).
		WhereSince("UpdatedAt", f.UpdatedSince)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// An unparseable updated_since is ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if p := values.Get("phase"); p != "" {
		f.Phase = &p
	}
	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}
	if since := values.Get("updated_since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			f.UpdatedSince = &t
		}
	}

	return f
}

func (f Filters) match(rec Record, search *string) bool {
	if f.Phase != nil && string(rec.Phase) != *f.Phase {
		return false
	}
	if f.Filename != nil && !containsFold(rec.Filename, *f.Filename) {
		return false
	}
	if f.UpdatedSince != nil && rec.UpdatedAt.Before(*f.UpdatedSince) {
		return false
	}
	if search != nil && *search != "" {
		return containsFold(rec.Filename, *search) || containsFold(string(rec.Phase), *search)
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// MemoryStore keeps snapshots in process memory. It serves development runs
// without a database and tests. Sorting is always most recently updated first.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[uuid.UUID]Record
	pagination pagination.Config
	now        func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(cfg pagination.Config) *MemoryStore {
	return &MemoryStore{
		records:    make(map[uuid.UUID]Record),
		pagination: cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Save(ctx context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if prev, ok := s.records[rec.ID]; ok {
		rec.CreatedAt = prev.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.State = slices.Clone(rec.State)

	s.records[rec.ID] = rec
	return rec, nil
}

func (s *MemoryStore) Find(ctx context.Context, id uuid.UUID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) List(ctx context.Context, page pagination.PageRequest, filters Filters) (pagination.PageResult[Record], error) {
	page.Normalize(s.pagination)

	s.mu.RLock()
	matched := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if filters.match(rec, page.Search) {
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b Record) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.PageSize, total)

	return pagination.NewPageResult(matched[start:end], total, page.Page, page.PageSize), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}
