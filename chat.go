package relay

import "context"

// ChatProvider defines the generation contract shared by every backend.
type ChatProvider interface {
	// Chat sends a conversation and returns a complete response.
	Chat(ctx context.Context, messages []Message, opts ...Option) (*Response, error)

	// ChatStream sends a conversation and returns a channel of streaming events.
	// The channel is closed when the stream is complete or an error occurs.
	// Callers should check StreamEvent.Err for any errors.
	ChatStream(ctx context.Context, messages []Message, opts ...Option) (<-chan StreamEvent, error)
}

// Model is a ChatProvider bound to a single backend model.
// ModelID and Provider are informational and used for logging and hooks.
type Model interface {
	ChatProvider

	// ModelID returns the backend's model identifier.
	ModelID() string

	// Provider returns the vendor serving the model.
	Provider() Provider
}
