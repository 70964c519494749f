package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/internal/retry"
)

// ErrNoModels is returned by New when the roster is empty.
var ErrNoModels = errors.New("no models available")

// IsRetryable is the default error classifier.
// See the retry package for the classification order.
func IsRetryable(err error) bool {
	return retry.IsRetryable(err)
}

// Backoff returns the delay after the given attempt on a model (0-indexed).
func Backoff(attempt int) time.Duration {
	return retry.Backoff(attempt)
}

// Model is a relay.Model that spreads calls over an ordered roster of
// backend models, retrying and failing over on retryable errors.
//
// The cursor selecting the current model is shared by every call on the
// same Model. A failure observed by one call moves the cursor for all
// later attempts and calls, so concurrent callers converge away from a
// failing backend together. The cursor returns to the primary model lazily,
// at the start of a call, once ModelResetInterval has elapsed since the
// last reset.
type Model struct {
	models   []relay.Model
	settings Settings
	logger   *slog.Logger
	events   chan<- Event

	mu        sync.Mutex
	cursor    int
	lastReset time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a fallback Model over the given roster. The first model is
// the primary. The roster is copied and never modified.
func New(models []relay.Model, opts ...Option) (*Model, error) {
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	for i, m := range models {
		if m == nil {
			return nil, fmt.Errorf("no model available at index %d", i)
		}
	}

	cfg := config{settings: defaultSettings()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.settings.MaxRetriesPerModel < 1 {
		return nil, fmt.Errorf("max retries per model must be at least 1, got %d", cfg.settings.MaxRetriesPerModel)
	}
	if cfg.settings.ModelResetInterval < 0 {
		return nil, fmt.Errorf("model reset interval must not be negative, got %s", cfg.settings.ModelResetInterval)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	roster := make([]relay.Model, len(models))
	copy(roster, models)

	return &Model{
		models:    roster,
		settings:  cfg.settings,
		logger:    cfg.logger,
		events:    cfg.events,
		lastReset: time.Now(),
		now:       time.Now,
		sleep:     retry.Sleep,
	}, nil
}

// ModelID returns the identifier of the model at the cursor.
func (m *Model) ModelID() string {
	_, backend := m.current()
	return backend.ModelID()
}

// Provider returns the provider of the model at the cursor.
func (m *Model) Provider() relay.Provider {
	_, backend := m.current()
	return backend.Provider()
}

// CurrentIndex returns the roster position of the cursor.
func (m *Model) CurrentIndex() int {
	index, _ := m.current()
	return index
}

// Models returns a copy of the roster.
func (m *Model) Models() []relay.Model {
	roster := make([]relay.Model, len(m.models))
	copy(roster, m.models)
	return roster
}

// Settings returns the configuration the Model was built with.
func (m *Model) Settings() Settings {
	return m.settings
}

// Chat sends the conversation to the model at the cursor. Retryable errors
// are retried up to MaxRetriesPerModel times per model, then the next model
// is tried. When every model has failed, the last error is returned as is.
// A non-retryable error is returned immediately.
func (m *Model) Chat(ctx context.Context, messages []relay.Message, opts ...relay.Option) (*relay.Response, error) {
	c := m.newCall("chat")
	m.resetIfDue(c)

	return do(ctx, m, c, func(backend relay.Model) (*relay.Response, error) {
		return backend.Chat(ctx, messages, opts...)
	})
}

// call identifies one top-level Chat or ChatStream invocation.
type call struct {
	id        string
	operation string
	logger    *slog.Logger
}

func (m *Model) newCall(operation string) call {
	id := uuid.NewString()
	return call{
		id:        id,
		operation: operation,
		logger:    m.logger.With("call_id", id, "operation", operation),
	}
}

// do runs fn against the model at the cursor until it succeeds, fails with
// a non-retryable error, or the rotation is exhausted.
func do[T any](ctx context.Context, m *Model, c call, fn func(relay.Model) (T, error)) (T, error) {
	var zero T
	var lastErr error

	maxAttempts := m.settings.MaxRetriesPerModel
	initial, _ := m.current()

	for tried := 0; tried < len(m.models); tried++ {
		for attempt := 0; attempt < maxAttempts; attempt++ {
			index, backend := m.current()

			result, err := fn(backend)
			if err == nil {
				m.emit(c, Event{
					Type:        EventSuccess,
					ModelID:     backend.ModelID(),
					ModelIndex:  index,
					Attempt:     attempt + 1,
					MaxAttempts: maxAttempts,
				})
				return result, nil
			}

			lastErr = err
			retryable := m.shouldRetry(err)

			m.emit(c, Event{
				Type:        EventAttemptFailed,
				ModelID:     backend.ModelID(),
				ModelIndex:  index,
				Attempt:     attempt + 1,
				MaxAttempts: maxAttempts,
				Error:       err,
				Retryable:   retryable,
			})

			if !retryable {
				c.logger.Debug("non-retryable error", "model", backend.ModelID(), "error", err)
				return zero, err
			}

			m.notify(ctx, c, err, backend.ModelID())

			// Don't sleep after the last attempt of the rotation
			if attempt == maxAttempts-1 && tried == len(m.models)-1 {
				continue
			}

			delay := retry.Backoff(attempt)
			m.emit(c, Event{
				Type:        EventRetrying,
				ModelID:     backend.ModelID(),
				ModelIndex:  index,
				Attempt:     attempt + 1,
				MaxAttempts: maxAttempts,
				Delay:       delay,
			})
			if err := m.sleep(ctx, delay); err != nil {
				return zero, err
			}
		}

		from, next := m.advance()
		if from != next {
			c.logger.Warn("switching model",
				"from", m.models[from].ModelID(),
				"to", m.models[next].ModelID(),
				"error", lastErr,
			)
			m.emit(c, Event{
				Type:       EventRotated,
				ModelID:    m.models[next].ModelID(),
				ModelIndex: next,
				Error:      lastErr,
			})
		}
		if next == initial {
			break
		}
	}

	c.logger.Warn("all models failed", "models", len(m.models), "error", lastErr)
	m.emit(c, Event{
		Type:        EventExhausted,
		MaxAttempts: maxAttempts,
		Error:       lastErr,
	})
	return zero, lastErr
}

// current returns the cursor and the model it points at.
func (m *Model) current() (int, relay.Model) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor, m.models[m.cursor]
}

// advance moves the cursor to the next model, wrapping around, and returns
// the previous and new positions.
func (m *Model) advance() (from, to int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from = m.cursor
	m.cursor = (m.cursor + 1) % len(m.models)
	return from, m.cursor
}

// resetIfDue moves the cursor back to the primary model when the reset
// interval has elapsed. Only called at the start of a top-level call.
func (m *Model) resetIfDue(c call) {
	m.mu.Lock()
	now := m.now()
	if m.cursor == 0 || now.Sub(m.lastReset) < m.settings.ModelResetInterval {
		m.mu.Unlock()
		return
	}
	from := m.cursor
	m.cursor = 0
	m.lastReset = now
	m.mu.Unlock()

	c.logger.Info("resetting to primary model",
		"from", m.models[from].ModelID(),
		"to", m.models[0].ModelID(),
	)
	m.emit(c, Event{
		Type:       EventPrimaryReset,
		ModelID:    m.models[0].ModelID(),
		ModelIndex: 0,
	})
}

func (m *Model) shouldRetry(err error) bool {
	if m.settings.ShouldRetry != nil {
		return m.settings.ShouldRetry(err)
	}
	return retry.IsRetryable(err)
}

// notify runs the error hook. Its failures never reach the caller.
func (m *Model) notify(ctx context.Context, c call, err error, modelID string) {
	if m.settings.OnError == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("error hook panicked", "model", modelID, "panic", r)
		}
	}()
	if hookErr := m.settings.OnError(ctx, err, modelID); hookErr != nil {
		c.logger.Debug("error hook failed", "model", modelID, "error", hookErr)
	}
}

func (m *Model) emit(c call, event Event) {
	event.CallID = c.id
	event.Operation = c.operation
	emit(m.events, event)
}

var _ relay.Model = (*Model)(nil)
