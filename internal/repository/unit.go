package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/kontext-dev/kontext/internal/pagination"
	"github.com/kontext-dev/kontext/internal/vector"
)

type UnitRepository struct {
	db queryer
}

func NewUnitRepository(pool *pgxpool.Pool) *UnitRepository {
	return &UnitRepository{db: pool}
}

func NewUnitRepositoryWithTx(tx pgx.Tx) *UnitRepository {
	return &UnitRepository{db: tx}
}

const unitColumns = `id, project_name, content, knowledge_type, confidence, tags, embedding, created_at`

// Upsert inserts the unit or replaces the stored row when the id already
// exists. Replacement covers every derived field so a re-save fully
// supersedes the previous classification.
func (r *UnitRepository) Upsert(ctx context.Context, u *domain.KnowledgeUnit) error {
	tags, err := json.Marshal(u.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO session_units (id, project_name, content, knowledge_type, confidence, tags, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   project_name = EXCLUDED.project_name,
		   content = EXCLUDED.content,
		   knowledge_type = EXCLUDED.knowledge_type,
		   confidence = EXCLUDED.confidence,
		   tags = EXCLUDED.tags,
		   embedding = EXCLUDED.embedding,
		   created_at = EXCLUDED.created_at`,
		u.ID, u.ProjectName, u.Content, string(u.Type), u.Confidence, tags, nullableVector(u.Embedding), u.CreatedAt,
	)
	return err
}

func (r *UnitRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeUnit, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+unitColumns+` FROM session_units WHERE id = $1`,
		id,
	)
	u, err := scanUnit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnitNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UnitRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.KnowledgeUnit, error) {
	if len(ids) == 0 {
		return []*domain.KnowledgeUnit{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+unitColumns+` FROM session_units WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnitRows(rows)
}

func (r *UnitRepository) ListByProjectWithCursor(ctx context.Context, projectName string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.KnowledgeUnit], error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+unitColumns+`
			 FROM session_units
			 WHERE project_name = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			projectName, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+unitColumns+`
			 FROM session_units
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

	items, err := scanUnitRows(rows)
	if err != nil {
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

	return &pagination.PageResult[*domain.KnowledgeUnit]{
		Items:   items,
		Cursor:  nextCursor,
		HasMore: hasMore,
	}, nil
}

// ListEmbeddings streams every stored (id, embedding) pair for rebuilding
// the in-memory index at startup and after writes.
func (r *UnitRepository) ListEmbeddings(ctx context.Context) ([]vector.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, embedding FROM session_units WHERE embedding IS NOT NULL`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []vector.Entry
	for rows.Next() {
		var id string
		var vec pgvector.Vector
		if err := rows.Scan(&id, &vec); err != nil {
			return nil, err
		}
		entries = append(entries, vector.Entry{ID: id, Embedding: vec.Slice()})
	}
	return entries, rows.Err()
}

// ListMissingEmbeddings returns units saved without a vector, oldest
// first, for the backfill worker.
func (r *UnitRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]*domain.KnowledgeUnit, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+unitColumns+`
		 FROM session_units
		 WHERE embedding IS NULL
		 ORDER BY created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnitRows(rows)
}

func (r *UnitRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE session_units SET embedding = $1 WHERE id = $2`,
		pgvector.NewVector(embedding), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrUnitNotFound
	}
	return nil
}

// SearchLexical is the fallback used when no embedding capability is
// configured: case-insensitive substring match, newest first.
func (r *UnitRepository) SearchLexical(ctx context.Context, projectName, query string, limit int) ([]*domain.KnowledgeUnit, error) {
	if limit <= 0 {
		limit = 20
	}

	sql := `SELECT ` + unitColumns + `
		 FROM session_units
		 WHERE content ILIKE '%' || $1 || '%'`
	args := []any{query}

	if projectName != "" {
		sql += ` AND project_name = $2`
		args = append(args, projectName)
	}
	sql += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnitRows(rows)
}

// CountByType aggregates the project's stored units per knowledge type.
func (r *UnitRepository) CountByType(ctx context.Context, projectName string) (map[domain.KnowledgeType]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT knowledge_type, COUNT(*)
		 FROM session_units
		 WHERE project_name = $1
		 GROUP BY knowledge_type`,
		projectName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.KnowledgeType]int)
	for rows.Next() {
		var knowledgeType string
		var count int
		if err := rows.Scan(&knowledgeType, &count); err != nil {
			return nil, err
		}
		counts[domain.KnowledgeType(knowledgeType)] = count
	}
	return counts, rows.Err()
}

func (r *UnitRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM session_units WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrUnitNotFound
	}
	return nil
}

func scanUnit(row pgx.Row) (*domain.KnowledgeUnit, error) {
	var u domain.KnowledgeUnit
	var knowledgeType string
	var tags []byte
	var vec *pgvector.Vector
	if err := row.Scan(&u.ID, &u.ProjectName, &u.Content, &knowledgeType, &u.Confidence, &tags, &vec, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Type = domain.KnowledgeType(knowledgeType)
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &u.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	if vec != nil {
		u.Embedding = vec.Slice()
	}
	return &u, nil
}

func scanUnitRows(rows pgx.Rows) ([]*domain.KnowledgeUnit, error) {
	var results []*domain.KnowledgeUnit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

func nullableVector(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}
