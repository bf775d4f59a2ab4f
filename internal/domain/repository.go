package domain

import "context"

// ChunkStore reads indexed documentation chunks outside the similarity-search
// path, for corpus-level operations like full-technology summarization.
type ChunkStore interface {
	// ListChunks returns every indexed chunk with its metadata.
	ListChunks(ctx context.Context) ([]ContextChunk, error)
}
