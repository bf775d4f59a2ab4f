package domain

// ContextChunk is a unit of indexed documentation text, normalized from a raw
// index hit. URL and TechnologyID are empty when the hit's metadata lacked them.
type ContextChunk struct {
	Content      string
	URL          string
	TechnologyID string
}

// ConversationTurn is one prior message in the chat history. The pipeline reads
// history but never mutates it.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles accepted in history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
