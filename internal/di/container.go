package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"techdocs-chat/internal/adapter/llm"
	"techdocs-chat/internal/adapter/repository"
	"techdocs-chat/internal/adapter/vectorstore"
	"techdocs-chat/internal/domain"
	"techdocs-chat/internal/infra/config"
	"techdocs-chat/internal/infra/httpclient"
	"techdocs-chat/internal/usecase"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	LanguageModel domain.LanguageModel
	Encoder       domain.VectorEncoder
	Index         domain.EmbeddingIndex
	Directory     domain.TechnologyDirectory
	ChunkStore    domain.ChunkStore

	Summarize usecase.SummarizeUsecase
	Chat      usecase.ChatUsecase
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	// Shared HTTP client with connection pooling for all model API calls.
	modelHTTP := httpclient.NewPooledClient(120 * time.Second)

	model := llm.NewOpenAIClient(llm.Config{
		APIKey:            cfg.OpenAIAPIKey,
		BaseURL:           cfg.OpenAIBaseURL,
		Model:             cfg.ChatModel,
		Temperature:       0,
		MaxRetries:        cfg.ModelMaxRetries,
		RequestsPerSecond: float64(cfg.ModelRequestsPerSecond),
	}, modelHTTP, log)

	encoder := llm.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbedModel, modelHTTP)

	index, err := vectorstore.NewPgvectorIndex(pool, encoder, cfg.IndexMaxConcurrency, cfg.EmbeddingCacheSize, log)
	if err != nil {
		return nil, err
	}

	directory := repository.NewTechnologyRepository(pool)
	chunkStore := repository.NewDocChunkRepository(pool)

	decompose := usecase.NewDecomposeQueryUsecase(model, log)
	classify := usecase.NewClassifyQueryUsecase(model, log)
	reformulate := usecase.NewReformulateQueryUsecase(model, log)
	retrieve := usecase.NewRetrieveContextUsecase(index, cfg.RetrievalTopK, log)
	stream := usecase.NewAnswerStreamUsecase(model, log)
	summarize := usecase.NewSummarizeUsecase(model, log)

	chat := usecase.NewChatUsecase(decompose, classify, reformulate, retrieve, stream, summarize, directory, log)

	return &ApplicationComponents{
		LanguageModel: model,
		Encoder:       encoder,
		Index:         index,
		Directory:     directory,
		ChunkStore:    chunkStore,
		Summarize:     summarize,
		Chat:          chat,
	}, nil
}
