package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"techdocs-chat/internal/domain"
)

// decomposeResult is the structured shape returned by the decomposition call.
type decomposeResult struct {
	Queries []string `json:"queries"`
}

// DecomposeQueryUsecase splits one user query into one or more atomic
// sub-queries. The returned list is never empty.
type DecomposeQueryUsecase interface {
	Execute(ctx context.Context, query string) ([]string, error)
}

type decomposeQueryUsecase struct {
	llm    domain.LanguageModel
	logger *slog.Logger
}

// NewDecomposeQueryUsecase creates a new DecomposeQueryUsecase.
func NewDecomposeQueryUsecase(llm domain.LanguageModel, logger *slog.Logger) DecomposeQueryUsecase {
	return &decomposeQueryUsecase{llm: llm, logger: logger}
}

func (u *decomposeQueryUsecase) Execute(ctx context.Context, query string) ([]string, error) {
	var result decomposeResult
	req := domain.StructuredRequest{
		Messages:   buildDecomposeMessages(query),
		SchemaName: "query_decomposition",
	}
	if err := u.llm.InvokeStructured(ctx, req, &result); err != nil {
		return nil, fmt.Errorf("failed to decompose query: %w", err)
	}
	if len(result.Queries) == 0 {
		return nil, fmt.Errorf("%w: decomposition returned no queries", domain.ErrSchemaViolation)
	}

	u.logger.Debug("query_decomposed",
		slog.String("query", query),
		slog.Int("sub_query_count", len(result.Queries)))

	return result.Queries, nil
}
