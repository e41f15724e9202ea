// Package llm provides OpenAI-compatible LLM client functionality.
package llm

import (
	"context"
)

// ChatClient defines the interface for chat-completion operations.
// Use this interface for dependency injection to enable mocking in tests.
//
// The client must support temperature 0 (deterministic SQL generation) as
// well as low-but-nonzero temperatures for freeform text.
type ChatClient interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Ensure Client implements ChatClient at compile time.
var _ ChatClient = (*Client)(nil)
