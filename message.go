package relay

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
}

// Response represents a complete response from a backend model.
type Response struct {
	Content      string   `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
	Usage        Usage    `json:"usage"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Usage contains token usage information for a request.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Total returns the sum of input and output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// StreamEvent represents a single event in a streaming response.
type StreamEvent struct {
	// Start marks a connection-opened signal. It carries no content.
	Start bool
	// Delta contains the incremental content for this event.
	Delta string
	// Done indicates if this is the final event in the stream.
	Done bool
	// Response contains the final response data when Done is true.
	Response *Response
	// Err contains any error that occurred during streaming.
	Err error
}

// IsContent reports whether the event counts as delivered output.
// Start markers and error events do not.
func (e StreamEvent) IsContent() bool {
	return !e.Start && e.Err == nil
}
