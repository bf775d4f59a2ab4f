package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"techdocs-chat/internal/domain"
)

const chunkSeparator = "\n\n---\n\n"

const decomposeSystemPrompt = "You are a user query decomposer. Your role is to split a complex query " +
	"into minimal independent sub-queries. If the query is already simple, return it unchanged as a " +
	"single-element list. You have to return a JSON structure with the following format: { \"queries\": [string] } " +
	"with at least one element."

const reformulateSystemPrompt = "You are a user query categorizer. You will receive queries about technology " +
	"documentation. Your role is to rewrite any query that is too generic into one or more specific queries " +
	"suited for semantic search against a vector index. When a query is generic (for example 'tell me about " +
	"this technology'), use the technology names you are given together with your own knowledge of those " +
	"technologies to generate queries that, once answered, would answer the original one. The resulting " +
	"queries are sent to a vector database for semantic search, so phrase them accordingly. You have to " +
	"return a JSON structure with the following format: { \"queries\": [string] }."

const classifySystemPrompt = "You classify documentation queries. Given a set of sub-queries about technology " +
	"documentation, decide whether, taken together, they ask for a general overview of a technology's whole " +
	"documentation or for specific details (APIs, configuration, syntax, behavior). Return a JSON structure " +
	"with the following format: { \"queryType\": \"general\" | \"specific\" }."

const answerSystemPrompt = "You are a chatbot that answers user queries about technologies. You can receive " +
	"from one to many queries. You will receive the context chunks of the documents that you can use to " +
	"answer the queries, and the conversation history if available. Respond in a concise and helpful way in " +
	"markdown format. IMPORTANT: each context chunk is accompanied by a source url; whenever a statement " +
	"comes from a specific chunk, append an inline citation of the exact form [source](url) immediately " +
	"after that statement, where [source] is always the literal, unchanging marker and (url) is that " +
	"chunk's url. You MUST respond in markdown. ALWAYS start your response with a top-level heading that " +
	"represents the main topic, and use subheadings, bullet points, and numbered lists where applicable. " +
	"Use code blocks when providing code examples."

// promptChunk is the wire shape of a context chunk inside the generation
// prompt. Missing metadata is serialized as null, not as an empty string.
type promptChunk struct {
	Content      string  `json:"content"`
	URL          *string `json:"url"`
	TechnologyID *string `json:"technologyId"`
}

func buildDecomposeMessages(query string) []domain.Message {
	return []domain.Message{
		{Role: "system", Content: decomposeSystemPrompt},
		{Role: "user", Content: query},
	}
}

func buildReformulateMessages(queries []string, technologies []domain.TechnologyRef) []domain.Message {
	names := make([]string, 0, len(technologies))
	for _, tech := range technologies {
		names = append(names, tech.Name)
	}
	return []domain.Message{
		{Role: "system", Content: reformulateSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Queries: %s\n\nTechnologies: %s", mustJSON(queries), mustJSON(names))},
	}
}

func buildClassifyMessages(queries []string, technologies []domain.TechnologyRef) []domain.Message {
	names := make([]string, 0, len(technologies))
	for _, tech := range technologies {
		names = append(names, tech.Name)
	}
	return []domain.Message{
		{Role: "system", Content: classifySystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Queries: %s\n\nTechnologies: %s", mustJSON(queries), mustJSON(names))},
	}
}

func buildAnswerMessages(queries []string, chunks []domain.ContextChunk, history []domain.ConversationTurn) []domain.Message {
	queriesJSON := `"No queries"`
	if len(queries) > 0 {
		queriesJSON = mustJSON(queries)
	}

	contextJSON := `"No context"`
	if len(chunks) > 0 {
		wire := make([]promptChunk, len(chunks))
		for i, chunk := range chunks {
			wire[i] = promptChunk{
				Content:      chunk.Content,
				URL:          nullable(chunk.URL),
				TechnologyID: nullable(chunk.TechnologyID),
			}
		}
		contextJSON = mustJSON(wire)
	}

	historyJSON := `"No conversation history"`
	if len(history) > 0 {
		historyJSON = mustJSON(history)
	}

	return []domain.Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Queries: %s\n\nContext: %s\n\nConversation History: %s",
			queriesJSON, contextJSON, historyJSON)},
	}
}

func buildStuffPrompt(chunks []domain.ContextChunk, focusQuery string) string {
	blocks := make([]string, len(chunks))
	for i, chunk := range chunks {
		blocks[i] = fmt.Sprintf("Chunk %d:\n%s", i+1, chunk.Content)
	}

	var sb strings.Builder
	sb.WriteString("Based on the following document chunks, provide a comprehensive summary.\n")
	if focusQuery != "" {
		sb.WriteString("Focus on: ")
		sb.WriteString(focusQuery)
		sb.WriteString("\n")
	}
	sb.WriteString("\nDOCUMENT CHUNKS:\n")
	sb.WriteString(strings.Join(blocks, chunkSeparator))
	sb.WriteString("\n\nPlease provide a clear, detailed summary capturing the main points and key information.")
	return sb.String()
}

func buildMapPrompt(chunk domain.ContextChunk) string {
	return fmt.Sprintf("Provide a concise summary of this document chunk:\n\n%s\n\nSummary:", chunk.Content)
}

func buildReducePrompt(summaries []string, focusQuery string) string {
	blocks := make([]string, len(summaries))
	for i, summary := range summaries {
		blocks[i] = fmt.Sprintf("Summary %d:\n%s", i+1, summary)
	}

	var sb strings.Builder
	sb.WriteString("Combine these summaries into one coherent, comprehensive summary.\n")
	if focusQuery != "" {
		sb.WriteString("Focus on: ")
		sb.WriteString(focusQuery)
		sb.WriteString("\n")
	}
	sb.WriteString("\nSUMMARIES TO COMBINE:\n")
	sb.WriteString(strings.Join(blocks, chunkSeparator))
	sb.WriteString("\n\nFinal consolidated summary:")
	return sb.String()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// mustJSON marshals values that are built from plain strings and structs of
// strings; marshaling them cannot fail.
func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
