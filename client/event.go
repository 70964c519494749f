package client

import (
	"time"

	"github.com/spetersoncode/relay"
)

// EventType identifies the kind of event occurring during client operations.
type EventType string

const (
	// EventRequestStart fires before a request is handed to the roster.
	EventRequestStart EventType = "request_start"

	// EventRequestComplete fires after a request completes successfully.
	EventRequestComplete EventType = "request_complete"

	// EventRequestError fires when a request fails on every model it tried.
	EventRequestError EventType = "request_error"
)

// Event represents an observable occurrence during client operations.
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// RequestID correlates the events of one request.
	RequestID string

	// Operation identifies the API operation ("chat", "chat_stream").
	Operation string

	// Provider identifies the provider of the selected model.
	Provider relay.Provider

	// Model is the selected model's identifier.
	Model string

	// Duration is the elapsed time for finished requests.
	Duration time.Duration

	// Usage contains token usage for completed requests.
	Usage *relay.Usage

	// Cost is the estimated USD cost for completed requests.
	Cost float64

	// Error contains the error for EventRequestError.
	Error error

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
		// Channel full - don't block
	}
}
