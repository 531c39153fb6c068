// File: internal/services/ai/interface.go
package ai

import "context"

// ChatMessage is one role/content pair of conversation context, in the
// order it should be replayed to the completion API.
type ChatMessage struct {
	Role    string
	Content string
}

// CompletionProvider handles chat completions against an external LLM API.
type CompletionProvider interface {
	// Complete issues a blocking completion over the full conversation
	// context and returns the assistant's reply.
	Complete(ctx context.Context, model string, messages []ChatMessage) (string, error)

	// StreamCompletion issues a streaming completion, invoking onDelta for
	// every text fragment in arrival order. A non-nil error from onDelta
	// aborts the stream and is returned unchanged.
	StreamCompletion(ctx context.Context, model string, messages []ChatMessage, onDelta func(string) error) error
}
