package fallback

import "time"

// EventType identifies the kind of event emitted by a Model.
type EventType string

const (
	// EventAttemptFailed fires after a failed attempt on a model.
	EventAttemptFailed EventType = "attempt_failed"

	// EventRetrying fires before sleeping between attempts.
	EventRetrying EventType = "retrying"

	// EventRotated fires when the cursor moves to the next model.
	EventRotated EventType = "rotated"

	// EventPrimaryReset fires when a call resets the cursor to the primary model.
	EventPrimaryReset EventType = "primary_reset"

	// EventSuccess fires when an attempt succeeds.
	EventSuccess EventType = "success"

	// EventExhausted fires when every model in the rotation has failed.
	EventExhausted EventType = "exhausted"

	// EventStreamFailover fires when a running stream restarts on the next model.
	EventStreamFailover EventType = "stream_failover"

	// EventStreamCleanClose fires when a stream error is treated as normal completion.
	EventStreamCleanClose EventType = "stream_clean_close"
)

// Event represents an observable occurrence during a call.
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// CallID correlates all events of one top-level call.
	CallID string

	// Operation is "chat" or "chat_stream".
	Operation string

	// ModelID identifies the model the event concerns.
	ModelID string

	// ModelIndex is the model's position in the roster.
	ModelIndex int

	// Attempt is the attempt number on the current model (1-indexed).
	Attempt int

	// MaxAttempts is the per-model attempt limit.
	MaxAttempts int

	// Error contains the error from a failed attempt.
	Error error

	// Retryable indicates whether the error was classified as retryable.
	Retryable bool

	// Delay is the backoff before the next attempt (for EventRetrying).
	Delay time.Duration

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
