package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/kontext-dev/kontext/internal/pagination"
)

type ContinuationRepository struct {
	db queryer
}

func NewContinuationRepository(pool *pgxpool.Pool) *ContinuationRepository {
	return &ContinuationRepository{db: pool}
}

func NewContinuationRepositoryWithTx(tx pgx.Tx) *ContinuationRepository {
	return &ContinuationRepository{db: tx}
}

const continuationColumns = `id, project_name, status, position, problem, tried, next_steps, todo, context_note, raw_sections, created_at`

func (r *ContinuationRepository) Create(ctx context.Context, c *domain.Continuation) error {
	position, err := json.Marshal(c.Position)
	if err != nil {
		return fmt.Errorf("failed to encode position: %w", err)
	}
	tried, err := json.Marshal(c.Tried)
	if err != nil {
		return fmt.Errorf("failed to encode tried: %w", err)
	}
	next, err := json.Marshal(c.Next)
	if err != nil {
		return fmt.Errorf("failed to encode next steps: %w", err)
	}
	todo, err := json.Marshal(c.Todo)
	if err != nil {
		return fmt.Errorf("failed to encode todo: %w", err)
	}
	rawSections, err := json.Marshal(c.RawSections)
	if err != nil {
		return fmt.Errorf("failed to encode raw sections: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO continuations (id, project_name, status, position, problem, tried, next_steps, todo, context_note, raw_sections, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.ProjectName, c.Status, position, c.Problem, tried, next, todo, c.Context, rawSections, c.CreatedAt,
	)
	return err
}

func (r *ContinuationRepository) GetByID(ctx context.Context, id string) (*domain.Continuation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+continuationColumns+` FROM continuations WHERE id = $1`,
		id,
	)
	c, err := scanContinuation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContinuationNotFound
		}
		return nil, err
	}
	return c, nil
}

// GetLatest returns the most recent continuation for a project, the one a
// resuming session wants first.
func (r *ContinuationRepository) GetLatest(ctx context.Context, projectName string) (*domain.Continuation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+continuationColumns+`
		 FROM continuations
		 WHERE project_name = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		projectName,
	)
	c, err := scanContinuation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContinuationNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *ContinuationRepository) ListByProjectWithCursor(ctx context.Context, projectName string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Continuation], error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+continuationColumns+`
			 FROM continuations
			 WHERE project_name = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			projectName, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+continuationColumns+`
			 FROM continuations
			 WHERE project_name = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			projectName, limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Continuation
	for rows.Next() {
		c, err := scanContinuation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &pagination.PageResult[*domain.Continuation]{
		Items:   items,
		Cursor:  nextCursor,
		HasMore: hasMore,
	}, nil
}

func (r *ContinuationRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM continuations WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrContinuationNotFound
	}
	return nil
}

func scanContinuation(row pgx.Row) (*domain.Continuation, error) {
	var c domain.Continuation
	var position, tried, next, todo, rawSections []byte
	if err := row.Scan(&c.ID, &c.ProjectName, &c.Status, &position, &c.Problem, &tried, &next, &todo, &c.Context, &rawSections, &c.CreatedAt); err != nil {
		return nil, err
	}

	for _, field := range []struct {
		raw  []byte
		dest any
	}{
		{position, &c.Position},
		{tried, &c.Tried},
		{next, &c.Next},
		{todo, &c.Todo},
		{rawSections, &c.RawSections},
	} {
		if len(field.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(field.raw, field.dest); err != nil {
			return nil, fmt.Errorf("failed to decode continuation field: %w", err)
		}
	}
	return &c, nil
}
