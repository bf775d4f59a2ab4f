package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"golang.org/x/time/rate"

	"techdocs-chat/internal/domain"
)

// Config holds the injected model settings. Temperature 0 keeps generation
// and summarization deterministic.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Temperature       float32
	MaxRetries        int
	RequestsPerSecond float64
}

// OpenAIClient implements domain.LanguageModel on any OpenAI-compatible chat
// API. Transient failures are retried within the configured budget; a shared
// rate limiter keeps the fan-out paths within upstream rate limits.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxRetries  int
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewOpenAIClient constructs a client for the configured endpoint and model.
func NewOpenAIClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *OpenAIClient {
	oaiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		oaiCfg.HTTPClient = httpClient
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(oaiCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  maxRetries,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		logger:      logger,
	}
}

// InvokeStructured requests a response constrained to the JSON schema derived
// from out's type and decodes it. A response that does not decode into the
// expected shape fails with domain.ErrSchemaViolation without retrying.
func (c *OpenAIClient) InvokeStructured(ctx context.Context, req domain.StructuredRequest, out any) error {
	schema, err := jsonschema.GenerateSchemaForType(out)
	if err != nil {
		return fmt.Errorf("failed to derive schema for %s: %w", req.SchemaName, err)
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    toOpenAIMessages(req.Messages),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: schema,
				Strict: true,
			},
		},
	}

	content, err := c.completeWithRetry(ctx, chatReq, req.SchemaName)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrSchemaViolation, req.SchemaName, err)
	}
	return nil
}

// Complete sends the messages and returns the full text response.
func (c *OpenAIClient) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    toOpenAIMessages(messages),
	}
	return c.completeWithRetry(ctx, chatReq, "completion")
}

func (c *OpenAIClient) completeWithRetry(ctx context.Context, req openai.ChatCompletionRequest, label string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			c.logger.Warn("model_call_failed",
				slog.String("call", label),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("response contained no choices")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("%w: %s exhausted %d attempts: %v", domain.ErrUpstreamModel, label, c.maxRetries, lastErr)
}

// Stream opens a streaming completion and forwards text fragments in emission
// order. Cancelling ctx stops the upstream call promptly.
func (c *OpenAIClient) Stream(ctx context.Context, messages []domain.Message) (<-chan domain.StreamDelta, <-chan error, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    toOpenAIMessages(messages),
		Stream:      true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to open stream: %v", domain.ErrUpstreamModel, err)
	}

	deltas := make(chan domain.StreamDelta, 8)
	errs := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errs)
		defer stream.Close()

		for {
			resp, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				return
			}
			if recvErr != nil {
				if ctx.Err() != nil {
					return
				}
				errs <- fmt.Errorf("%w: stream failed: %v", domain.ErrUpstreamModel, recvErr)
				return
			}

			text := flattenDelta(resp)
			if text == "" {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case deltas <- domain.StreamDelta{Text: text}:
			}
		}
	}()

	return deltas, errs, nil
}

// Version returns the wrapped model name.
func (c *OpenAIClient) Version() string {
	return c.model
}

// flattenDelta concatenates the fragment parts of one stream response into
// plain text.
func flattenDelta(resp openai.ChatCompletionStreamResponse) string {
	var text string
	for _, choice := range resp.Choices {
		text += choice.Delta.Content
	}
	return text
}

func toOpenAIMessages(messages []domain.Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		converted[i] = openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}
	return converted
}

var _ domain.LanguageModel = (*OpenAIClient)(nil)
