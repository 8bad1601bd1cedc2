package sessions

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/clerk/internal/workflow"
	"github.com/JaimeStill/clerk/pkg/pagination"
	"github.com/JaimeStill/clerk/pkg/query"
)

func ptr[T any](v T) *T { return &v }

func newTestStore(start time.Time) *MemoryStore {
	s := NewMemoryStore(pagination.Config{DefaultPageSize: 2, MaxPageSize: 10})
	clock := start
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func TestMemoryStoreListOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(start)

	lease := Record{ID: uuid.New(), Phase: workflow.PhaseConversation, Filename: "Lease.docx"}
	nda := Record{ID: uuid.New(), Phase: workflow.PhaseReview, Filename: "nda.docx"}
	blank := Record{ID: uuid.New(), Phase: workflow.PhaseUpload}

	for _, rec := range []Record{lease, nda, blank} {
		_, err := s.Save(ctx, rec)
		require.NoError(t, err)
	}

	// Touching lease moves it to the front and keeps its creation time.
	saved, err := s.Save(ctx, lease)
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Minute), saved.CreatedAt)
	assert.Equal(t, start.Add(4*time.Minute), saved.UpdatedAt)

	page, err := s.List(ctx, pagination.PageRequest{}, Filters{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, lease.ID, page.Data[0].ID)
	assert.Equal(t, blank.ID, page.Data[1].ID)

	page, err = s.List(ctx, pagination.PageRequest{Page: 2}, Filters{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, nda.ID, page.Data[0].ID)

	tests := []struct {
		name    string
		filters Filters
		search  *string
		want    []uuid.UUID
	}{
		{"phase", Filters{Phase: ptr("review")}, nil, []uuid.UUID{nda.ID}},
		{"filename fold", Filters{Filename: ptr("lease")}, nil, []uuid.UUID{lease.ID}},
		{"updated since", Filters{UpdatedSince: ptr(start.Add(3 * time.Minute))}, nil, []uuid.UUID{lease.ID, blank.ID}},
		{"search", Filters{}, ptr("NDA"), []uuid.UUID{nda.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.List(ctx, pagination.PageRequest{PageSize: 10, Search: tt.search}, tt.filters)
			require.NoError(t, err)

			got := make([]uuid.UUID, len(page.Data))
			for i, rec := range page.Data {
				got[i] = rec.ID
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStoreFindDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(time.Now())
	id := uuid.New()

	_, err := s.Find(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Save(ctx, Record{ID: id, Phase: workflow.PhaseUpload, State: []byte(`{}`)})
	require.NoError(t, err)

	rec, err := s.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, workflow.PhaseUpload, rec.Phase)

	require.NoError(t, s.Delete(ctx, id))
	assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
}

func TestFiltersFromQuery(t *testing.T) {
	f := FiltersFromQuery(url.Values{
		"phase":         {"review"},
		"filename":      {"lease"},
		"updated_since": {"2026-03-01T10:00:00Z"},
	})
	require.NotNil(t, f.Phase)
	assert.Equal(t, "review", *f.Phase)
	require.NotNil(t, f.Filename)
	require.NotNil(t, f.UpdatedSince)
	assert.Equal(t, 2026, f.UpdatedSince.Year())

	f = FiltersFromQuery(url.Values{"updated_since": {"yesterday"}})
	assert.Nil(t, f.UpdatedSince)
	assert.Nil(t, f.Phase)
}

func TestFiltersApply(t *testing.T) {
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f := Filters{Phase: ptr("review"), UpdatedSince: &since}

	sql, args := f.Apply(query.NewBuilder(projection, defaultSort)).BuildCount()
	assert.Equal(t, "SELECT COUNT(*) FROM public.sessions s WHERE s.phase = $1 AND s.updated_at >= $2", sql)
	require.Len(t, args, 2)
	assert.Equal(t, since, args[1])
}

func TestRecordRoundTrip(t *testing.T) {
	state := workflow.NewState()
	state.Phase = workflow.PhaseConversation
	state.File = &workflow.UploadedFile{Filename: "lease.docx", Data: []byte("bytes")}
	state.Log = workflow.NewLog(workflow.Turn{Role: workflow.RoleAssistant, Message: "hi"})
	state.Status = workflow.Status{Busy: true, Error: "Failed to send message"}

	rec, err := NewRecord(uuid.New(), state, "")
	require.NoError(t, err)
	assert.Equal(t, "lease.docx", rec.Filename)
	assert.Equal(t, 1, rec.TurnCount)
	assert.Nil(t, rec.ArtifactKey)

	restored, err := rec.Restore()
	require.NoError(t, err)
	assert.False(t, restored.Status.Busy)
	assert.Equal(t, "Failed to send message", restored.Status.Error)
	assert.Empty(t, restored.File.Data)
	assert.Equal(t, state.Log.Turns(), restored.Log.Turns())
}
