package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"canna_portal_backend/internal/stages/domain"
	"canna_portal_backend/platform/apperr"
	"canna_portal_backend/platform/db"
)

const (
	stageColumns         = `id, name, slug, description, color, icon, position, is_active, created_at, updated_at`
	slugUniqueConstraint = "lead_stages_slug_key"
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new stages repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a stage by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM lead_stages WHERE id = $1`

	st, err := scanStage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stage{}, domain.NotFound()
		}
		return Stage{}, fmt.Errorf("get stage by id: %w", err)
	}
	return st, nil
}

// GetBySlug retrieves a stage by its slug, active or not.
func (r *Repo) GetBySlug(ctx context.Context, slug string) (Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM lead_stages WHERE slug = $1`

	st, err := scanStage(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stage{}, domain.NotFound()
		}
		return Stage{}, fmt.Errorf("get stage by slug: %w", err)
	}
	return st, nil
}

// List retrieves stages ordered by position.
func (r *Repo) List(ctx context.Context, includeInactive bool) ([]Stage, error) {
	query := `
		SELECT ` + stageColumns + `
		FROM lead_stages
		WHERE ($1::boolean OR is_active = true)
		ORDER BY position ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	stages := make([]Stage, 0)
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	return stages, nil
}

// CountLeadsWithStatus counts leads whose status references slug.
func (r *Repo) CountLeadsWithStatus(ctx context.Context, slug string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE status = $1`, slug).Scan(&count); err != nil {
		return 0, fmt.Errorf("count leads for stage: %w", err)
	}
	return count, nil
}

// Create inserts a stage at the end of the pipeline.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Stage, error) {
	query := `
		INSERT INTO lead_stages (name, slug, description, color, icon, position, is_active)
		VALUES ($1, $2, $3, $4, $5, COALESCE((SELECT MAX(position) FROM lead_stages), -1) + 1, $6)
		RETURNING ` + stageColumns

	st, err := scanStage(r.pool.QueryRow(ctx, query,
		params.Name, params.Slug, params.Description, params.Color, params.Icon, params.IsActive,
	))
	if err != nil {
		if db.IsUniqueViolation(err, slugUniqueConstraint) {
			return Stage{}, domain.DuplicateSlug(params.Slug)
		}
		return Stage{}, fmt.Errorf("create stage: %w", err)
	}
	return st, nil
}

// Update applies a partial update. A slug change carries the stage's leads
// along inside the same transaction.
func (r *Repo) Update(ctx context.Context, params UpdateParams, oldSlug string) (Stage, int, error) {
	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	addClause := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Name != nil {
		addClause("name", *params.Name)
	}
	if params.Slug != nil {
		addClause("slug", *params.Slug)
	}
	if params.Description != nil {
		addClause("description", *params.Description)
	}
	if params.Color != nil {
		addClause("color", *params.Color)
	}
	if params.Icon != nil {
		addClause("icon", *params.Icon)
	}
	if params.IsActive != nil {
		addClause("is_active", *params.IsActive)
	}

	if len(setClauses) == 0 {
		st, err := r.GetByID(ctx, params.ID)
		return st, 0, err
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, params.ID)

	query := fmt.Sprintf(`
		UPDATE lead_stages SET %s
		WHERE id = $%d
		RETURNING `+stageColumns, strings.Join(setClauses, ", "), argIdx)

	var (
		st       Stage
		migrated int
	)
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		st, err = scanStage(tx.QueryRow(ctx, query, args...))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.NotFound()
			}
			if db.IsUniqueViolation(err, slugUniqueConstraint) && params.Slug != nil {
				return domain.DuplicateSlug(*params.Slug)
			}
			return fmt.Errorf("update stage: %w", err)
		}

		if params.Slug == nil || *params.Slug == oldSlug {
			return nil
		}

		tag, err := tx.Exec(ctx,
			`UPDATE leads SET status = $1, updated_at = now() WHERE status = $2`,
			*params.Slug, oldSlug,
		)
		if err != nil {
			return fmt.Errorf("migrate leads to renamed stage: %w", err)
		}
		migrated = int(tag.RowsAffected())
		return nil
	})
	if err != nil {
		return Stage{}, 0, err
	}

	return st, migrated, nil
}

// Delete hard-deletes a stage. Leads pointing at its slug are left alone.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lead_stages WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete stage: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Reorder rewrites positions in one transaction.
func (r *Repo) Reorder(ctx context.Context, ids []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for position, id := range ids {
			tag, err := tx.Exec(ctx,
				`UPDATE lead_stages SET position = $1, updated_at = now() WHERE id = $2`,
				position, id,
			)
			if err != nil {
				return fmt.Errorf("reorder stage %s: %w", id, err)
			}
			if tag.RowsAffected() == 0 {
				return apperr.NotFound(fmt.Sprintf("stage %s not found", id))
			}
		}
		return nil
	})
}

func scanStage(row pgx.Row) (Stage, error) {
	var st Stage
	err := row.Scan(
		&st.ID, &st.Name, &st.Slug, &st.Description, &st.Color, &st.Icon,
		&st.Position, &st.IsActive, &st.CreatedAt, &st.UpdatedAt,
	)
	return st, err
}
