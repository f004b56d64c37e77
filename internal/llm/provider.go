// Package llm abstracts the chat models that generate grounded answers.
package llm

import "context"

// Provider is the interface all chat-model backends must implement.
type Provider interface {
	// Complete sends a prompt and returns the full completion.
	Complete(ctx context.Context, prompt *Prompt, opts *RequestOptions) (*Response, error)
	// Stream sends a prompt and invokes onDelta for every incremental text
	// chunk, in arrival order, then returns the assembled response. A stream
	// is restartable only from scratch; cancelling ctx stops emission.
	Stream(ctx context.Context, prompt *Prompt, opts *RequestOptions, onDelta func(text string)) (*Response, error)
	// Name returns the provider identifier (e.g. "anthropic", "openai").
	Name() string
}

// Role identifies who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Prompt is the full input to a chat-model call.
type Prompt struct {
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Messages     []Message `json:"messages"`
}

// RequestOptions tunes a single chat-model call. Nil fields keep the
// provider's defaults.
type RequestOptions struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
	StopSeqs    []string
}

// Response wraps a chat-model completion result.
type Response struct {
	Content      string `json:"content"`
	Model        string `json:"model,omitempty"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	StopReason   string `json:"stop_reason,omitempty"`
}
