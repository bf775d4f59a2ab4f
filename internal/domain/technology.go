package domain

import "context"

// TechnologyRef identifies a technology whose documentation is indexed.
// Owned by the persistence layer; the pipeline only reads it.
type TechnologyRef struct {
	ID   string
	Name string
}

// TechnologyDirectory resolves technology ids to their records.
type TechnologyDirectory interface {
	FindByIDs(ctx context.Context, ids []string) ([]TechnologyRef, error)
}
