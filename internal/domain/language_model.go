package domain

import "context"

// Message is a single chat message sent to the language model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamDelta is one text fragment of a streaming completion. Adapters flatten
// any multi-part fragment representation into plain text before emitting.
type StreamDelta struct {
	Text string
}

// StructuredRequest asks the model for a response conforming to a declared
// shape. SchemaName labels the shape; the concrete shape is taken from the
// result value the caller decodes into, one struct type per call site.
type StructuredRequest struct {
	Messages   []Message
	SchemaName string
}

// LanguageModel is the consumed LLM capability. Implementations validate
// structured responses against the expected shape (ErrSchemaViolation on
// mismatch) and retry transient failures within their configured budget;
// callers treat a returned error as final.
type LanguageModel interface {
	// InvokeStructured sends the messages and decodes the schema-constrained
	// response into out, which must be a pointer to the result struct.
	InvokeStructured(ctx context.Context, req StructuredRequest, out any) error

	// Complete sends the messages and returns the full text response.
	Complete(ctx context.Context, messages []Message) (string, error)

	// Stream opens a streaming completion. Fragments arrive on the first
	// channel in emission order; the channel closes on normal completion.
	// A mid-stream failure is sent on the error channel and ends the stream.
	Stream(ctx context.Context, messages []Message) (<-chan StreamDelta, <-chan error, error)

	// Version returns the configured model identifier.
	Version() string
}
