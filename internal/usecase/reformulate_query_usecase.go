package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"techdocs-chat/internal/domain"
)

// reformulateResult is the structured shape returned by the reformulation call.
type reformulateResult struct {
	Queries []string `json:"queries"`
}

// ReformulateQueryUsecase rewrites overly generic sub-queries into
// retrieval-friendly ones, using the names of the in-scope technologies as
// context. Output cardinality may differ from input cardinality.
type ReformulateQueryUsecase interface {
	Execute(ctx context.Context, queries []string, technologies []domain.TechnologyRef) ([]string, error)
}

type reformulateQueryUsecase struct {
	llm    domain.LanguageModel
	logger *slog.Logger
}

// NewReformulateQueryUsecase creates a new ReformulateQueryUsecase.
func NewReformulateQueryUsecase(llm domain.LanguageModel, logger *slog.Logger) ReformulateQueryUsecase {
	return &reformulateQueryUsecase{llm: llm, logger: logger}
}

func (u *reformulateQueryUsecase) Execute(ctx context.Context, queries []string, technologies []domain.TechnologyRef) ([]string, error) {
	var result reformulateResult
	req := domain.StructuredRequest{
		Messages:   buildReformulateMessages(queries, technologies),
		SchemaName: "query_reformulation",
	}
	if err := u.llm.InvokeStructured(ctx, req, &result); err != nil {
		return nil, fmt.Errorf("failed to reformulate queries: %w", err)
	}
	if len(result.Queries) == 0 {
		return nil, fmt.Errorf("%w: reformulation returned no queries", domain.ErrSchemaViolation)
	}

	u.logger.Debug("queries_reformulated",
		slog.Int("input_count", len(queries)),
		slog.Int("output_count", len(result.Queries)),
		slog.Int("technology_count", len(technologies)))

	return result.Queries, nil
}
