package llm

import "fmt"

// Difficulty levels accepted for a problem.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of prior conversation, oldest first.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Problem identifies the coding problem a question is about.
// Slug is the partition key for documents and cache entries.
type Problem struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Difficulty  string `json:"difficulty"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// ChatRequest is a learner's question about a problem.
type ChatRequest struct {
	Question string    `json:"question"`
	Problem  Problem   `json:"problem"`
	History  []Message `json:"history,omitempty"`
}

// SourceDocument describes one retrieved chunk that informed an answer.
type SourceDocument struct {
	Title    string         `json:"title"`
	Snippet  string         `json:"snippet"`
	Metadata map[string]any `json:"metadata"`
}

// ChatResponse is the full result of one pipeline run.
type ChatResponse struct {
	Success bool             `json:"success"`
	Answer  string           `json:"answer"`
	Summary string           `json:"summary"`
	Sources []SourceDocument `json:"sources"`
}

// Chunk is one unit of source text submitted for embedding and storage.
type Chunk struct {
	Heading  string         `json:"heading"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DocumentChunk is an ephemeral retrieval result. Distance is the cosine
// distance to the query vector; lower means more similar.
type DocumentChunk struct {
	Title    string
	Content  string
	Metadata map[string]any
	Distance float64
}

// PromptSnippet renders the chunk the way the answer prompt expects it.
func (c DocumentChunk) PromptSnippet() string {
	source := "LeetCode"
	if s, ok := c.Metadata["source"].(string); ok && s != "" {
		source = s
	}
	return fmt.Sprintf("[%s] %s\n%s", source, c.Title, c.Content)
}

// ValidDifficulty reports whether d is one of the accepted difficulty levels.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ValidRole reports whether r is a recognized conversation role.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAssistant
}
