package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"techdocs-chat/internal/domain"
)

const defaultCacheSize = 512

// PgvectorIndex implements domain.EmbeddingIndex over a pgvector-backed
// chunk table. Query embeddings are cached in an LRU so repeated sub-queries
// within and across requests skip the encoder round trip.
type PgvectorIndex struct {
	pool           *pgxpool.Pool
	encoder        domain.VectorEncoder
	cache          *lru.Cache[string, []float32]
	maxConcurrency int
	logger         *slog.Logger
}

// NewPgvectorIndex creates a new PgvectorIndex. maxConcurrency is the bound
// the index advertises to callers fanning out searches.
func NewPgvectorIndex(pool *pgxpool.Pool, encoder domain.VectorEncoder, maxConcurrency, cacheSize int, logger *slog.Logger) (*PgvectorIndex, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, []float32](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &PgvectorIndex{
		pool:           pool,
		encoder:        encoder,
		cache:          cache,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}, nil
}

// MaxConcurrency reports how many searches may run in flight at once.
func (x *PgvectorIndex) MaxConcurrency() int {
	return x.maxConcurrency
}

// SimilaritySearch embeds the query and returns the k nearest chunks,
// restricted to the given technologies when the filter is non-empty.
func (x *PgvectorIndex) SimilaritySearch(ctx context.Context, query string, k int, technologyIDs []string) ([]domain.IndexHit, error) {
	embedding, err := x.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	filter := technologyIDs
	if filter == nil {
		filter = []string{}
	}

	rows, err := x.pool.Query(ctx, `
		SELECT content, url, technology_id
		FROM doc_chunks
		WHERE cardinality($2::text[]) = 0 OR technology_id = ANY($2)
		ORDER BY embedding <=> $1
		LIMIT $3
	`, pgvector.NewVector(embedding), filter, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.IndexHit
	for rows.Next() {
		var hit domain.IndexHit
		if err := rows.Scan(&hit.Content, &hit.URL, &hit.TechnologyID); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hits, nil
}

func (x *PgvectorIndex) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if cached, ok := x.cache.Get(query); ok {
		return cached, nil
	}

	embeddings, err := x.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	x.cache.Add(query, embeddings[0])
	return embeddings[0], nil
}

var _ domain.EmbeddingIndex = (*PgvectorIndex)(nil)
