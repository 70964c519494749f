package fallback

import (
	"context"
	"log/slog"
	"time"
)

// Defaults applied by New.
const (
	DefaultMaxRetriesPerModel = 2
	DefaultModelResetInterval = 3 * time.Minute
)

// ErrorHook is notified of every retryable failure before the controller
// backs off or fails over. Errors it returns are logged at debug level and
// otherwise ignored; they never change the outcome of the call.
type ErrorHook func(ctx context.Context, err error, modelID string) error

// Settings holds the retry and failover configuration of a Model.
// It is fixed at construction.
type Settings struct {
	// MaxRetriesPerModel is the total number of attempts made on one model
	// before rotating to the next (default: 2). The first try counts.
	MaxRetriesPerModel int

	// ModelResetInterval is how long the controller may stay away from the
	// primary model before a new call resets the cursor to it (default: 3m).
	ModelResetInterval time.Duration

	// RetryAfterOutput allows a stream to fail over even after content
	// has been delivered (default: true). The replacement stream restarts
	// from the beginning.
	RetryAfterOutput bool

	// ShouldRetry replaces the default error classification when set.
	ShouldRetry func(error) bool

	// OnError is invoked for every retryable failure.
	OnError ErrorHook
}

func defaultSettings() Settings {
	return Settings{
		MaxRetriesPerModel: DefaultMaxRetriesPerModel,
		ModelResetInterval: DefaultModelResetInterval,
		RetryAfterOutput:   true,
	}
}

// config collects everything an Option may set.
type config struct {
	settings Settings
	logger   *slog.Logger
	events   chan<- Event
}

// Option configures a Model.
type Option func(*config)

// WithMaxRetriesPerModel sets the number of attempts per model. Must be at least 1.
func WithMaxRetriesPerModel(n int) Option {
	return func(c *config) {
		c.settings.MaxRetriesPerModel = n
	}
}

// WithModelResetInterval sets how long to wait before returning to the primary model.
func WithModelResetInterval(d time.Duration) Option {
	return func(c *config) {
		c.settings.ModelResetInterval = d
	}
}

// WithRetryAfterOutput controls whether streams fail over after content was delivered.
func WithRetryAfterOutput(enabled bool) Option {
	return func(c *config) {
		c.settings.RetryAfterOutput = enabled
	}
}

// WithShouldRetry replaces the default classifier.
func WithShouldRetry(fn func(error) bool) Option {
	return func(c *config) {
		c.settings.ShouldRetry = fn
	}
}

// WithOnError sets the hook invoked on each retryable failure.
func WithOnError(hook ErrorHook) Option {
	return func(c *config) {
		c.settings.OnError = hook
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithEvents sets a channel receiving controller events.
// Events are sent non-blocking; if the channel is full, events are dropped.
func WithEvents(ch chan<- Event) Option {
	return func(c *config) {
		c.events = ch
	}
}
