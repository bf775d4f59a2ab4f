package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"techdocs-chat/internal/domain"
)

type docChunkRepository struct {
	pool *pgxpool.Pool
}

// NewDocChunkRepository creates a pgx-backed domain.ChunkStore.
func NewDocChunkRepository(pool *pgxpool.Pool) domain.ChunkStore {
	return &docChunkRepository{pool: pool}
}

func (r *docChunkRepository) ListChunks(ctx context.Context) ([]domain.ContextChunk, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT content, COALESCE(url, ''), COALESCE(technology_id::text, '')
		FROM doc_chunks
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.ContextChunk
	for rows.Next() {
		var chunk domain.ContextChunk
		if err := rows.Scan(&chunk.Content, &chunk.URL, &chunk.TechnologyID); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return chunks, nil
}
