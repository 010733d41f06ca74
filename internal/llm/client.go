// Package llm generates problem solutions via a configurable chat-completion
// backend (OpenAI-compatible or Anthropic).
package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is a minimal chat-completion interface. Implementations do not
// retry; callers own retry policy.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}

// Options configure a backend built by New.
type Options struct {
	Provider    string // "openai" or "anthropic"
	APIKey      string
	BaseURL     string // OpenAI-compatible endpoints only (e.g. Groq, OpenRouter)
	Model       string
	MaxTokens   int
	Temperature float64
}
