package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"techdocs-chat/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// stubLanguageModel scripts language model behavior per call site. Structured
// calls are answered from canned JSON keyed by schema name; Complete and
// Stream defer to pluggable functions. All methods are safe for concurrent use.
type stubLanguageModel struct {
	mu sync.Mutex

	structuredJSON map[string]string
	structuredErr  map[string]error
	completeFn     func(prompt string) (string, error)
	streamFn       func(ctx context.Context, messages []domain.Message) (<-chan domain.StreamDelta, <-chan error, error)

	structuredCalls []string
	completeCalls   []string
}

func newStubLanguageModel() *stubLanguageModel {
	return &stubLanguageModel{
		structuredJSON: map[string]string{},
		structuredErr:  map[string]error{},
	}
}

func (s *stubLanguageModel) InvokeStructured(ctx context.Context, req domain.StructuredRequest, out any) error {
	s.mu.Lock()
	s.structuredCalls = append(s.structuredCalls, req.SchemaName)
	raw, ok := s.structuredJSON[req.SchemaName]
	err := s.structuredErr[req.SchemaName]
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no scripted response for schema %s", req.SchemaName)
	}
	return json.Unmarshal([]byte(raw), out)
}

func (s *stubLanguageModel) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	prompt := messages[len(messages)-1].Content
	s.mu.Lock()
	s.completeCalls = append(s.completeCalls, prompt)
	s.mu.Unlock()

	if s.completeFn == nil {
		return "", fmt.Errorf("no scripted completion")
	}
	return s.completeFn(prompt)
}

func (s *stubLanguageModel) Stream(ctx context.Context, messages []domain.Message) (<-chan domain.StreamDelta, <-chan error, error) {
	if s.streamFn == nil {
		return nil, nil, fmt.Errorf("no scripted stream")
	}
	return s.streamFn(ctx, messages)
}

func (s *stubLanguageModel) Version() string {
	return "stub"
}

func (s *stubLanguageModel) completeCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completeCalls)
}

// scriptedStream builds a stream that emits the given fragments then closes,
// mirroring the adapter contract of closing both channels together.
func scriptedStream(fragments ...string) func(ctx context.Context, messages []domain.Message) (<-chan domain.StreamDelta, <-chan error, error) {
	return func(ctx context.Context, messages []domain.Message) (<-chan domain.StreamDelta, <-chan error, error) {
		deltas := make(chan domain.StreamDelta, len(fragments))
		errs := make(chan error, 1)
		go func() {
			defer close(deltas)
			defer close(errs)
			for _, fragment := range fragments {
				select {
				case <-ctx.Done():
					return
				case deltas <- domain.StreamDelta{Text: fragment}:
				}
			}
		}()
		return deltas, errs, nil
	}
}
