package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"techdocs-chat/internal/domain"
)

type technologyRepository struct {
	pool *pgxpool.Pool
}

// NewTechnologyRepository creates a pgx-backed domain.TechnologyDirectory.
func NewTechnologyRepository(pool *pgxpool.Pool) domain.TechnologyDirectory {
	return &technologyRepository{pool: pool}
}

func (r *technologyRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.TechnologyRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name
		FROM technologies
		WHERE id::text = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query technologies: %w", err)
	}
	defer rows.Close()

	var refs []domain.TechnologyRef
	for rows.Next() {
		var ref domain.TechnologyRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("failed to scan technology: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return refs, nil
}
