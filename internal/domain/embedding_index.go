package domain

import "context"

// IndexHit is a raw similarity-search result before normalization. URL and
// TechnologyID are nil when the stored metadata omitted them.
type IndexHit struct {
	Content      string
	URL          *string
	TechnologyID *string
}

// EmbeddingIndex is the consumed vector-index capability.
type EmbeddingIndex interface {
	// SimilaritySearch returns the top-k most similar chunks for the query.
	// A non-empty technologyIDs list restricts hits to those technologies;
	// an empty list searches the whole index.
	SimilaritySearch(ctx context.Context, query string, k int, technologyIDs []string) ([]IndexHit, error)

	// MaxConcurrency advertises how many searches the index tolerates
	// in flight at once.
	MaxConcurrency() int
}
