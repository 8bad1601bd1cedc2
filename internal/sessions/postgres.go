package sessions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/clerk/pkg/pagination"
	"github.com/JaimeStill/clerk/pkg/query"
	"github.com/JaimeStill/clerk/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "sessions", "s").
	Project("id", "ID").
	Project("phase", "Phase").
	Project("filename", "Filename").
	Project("template_id", "TemplateID").
	Project("placeholder_count", "PlaceholderCount").
	Project("turn_count", "TurnCount").
	Project("completed", "Completed").
	Project("error", "Error").
	Project("artifact_key", "ArtifactKey").
	Project("state", "State").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

const returning = `id, phase, filename, template_id, placeholder_count, turn_count, completed, error, artifact_key, state, created_at, updated_at`

type postgresStore struct {
	db         *sql.DB
	pagination pagination.Config
}

// NewPostgresStore creates a Store backed by the sessions table.
func NewPostgresStore(db *sql.DB, cfg pagination.Config) Store {
	return &postgresStore{db: db, pagination: cfg}
}

func (s *postgresStore) Save(ctx context.Context, rec Record) (Record, error) {
	q := `
		INSERT INTO sessions(id, phase, filename, template_id, placeholder_count, turn_count, completed, error, artifact_key, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			phase = EXCLUDED.phase,
			filename = EXCLUDED.filename,
			template_id = EXCLUDED.template_id,
			placeholder_count = EXCLUDED.placeholder_count,
			turn_count = EXCLUDED.turn_count,
			completed = EXCLUDED.completed,
			error = EXCLUDED.error,
			artifact_key = EXCLUDED.artifact_key,
			state = EXCLUDED.state,
			updated_at = NOW()
		RETURNING ` + returning

	args := []any{
		rec.ID,
		string(rec.Phase),
		rec.Filename,
		rec.TemplateID,
		rec.PlaceholderCount,
		rec.TurnCount,
		rec.Completed,
		rec.Error,
		rec.ArtifactKey,
		rec.State,
	}

	saved, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Record, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRecord)
	})
	if err != nil {
		return Record{}, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return saved, nil
}

func (s *postgresStore) Find(ctx context.Context, id uuid.UUID) (Record, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rec, err := repository.QueryOne(ctx, s.db, q, args, scanRecord)
	if err != nil {
		return Record{}, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return rec, nil
}

func (s *postgresStore) List(ctx context.Context, page pagination.PageRequest, filters Filters) (pagination.PageResult[Record], error) {
	page.Normalize(s.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename", "Phase")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, s.db, countSQL, countArgs)
	if err != nil {
		return pagination.PageResult[Record]{}, fmt.Errorf("count sessions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	records, err := repository.QueryMany(ctx, s.db, pageSQL, pageArgs, scanRecord)
	if err != nil {
		return pagination.PageResult[Record]{}, fmt.Errorf("query sessions: %w", err)
	}

	return pagination.NewPageResult(records, total, page.Page, page.PageSize), nil
}

func (s *postgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, "DELETE FROM sessions WHERE id = $1", id)
	})
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record
	err := s.Scan(
		&r.ID,
		&r.Phase,
		&r.Filename,
		&r.TemplateID,
		&r.PlaceholderCount,
		&r.TurnCount,
		&r.Completed,
		&r.Error,
		&r.ArtifactKey,
		&r.State,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}
