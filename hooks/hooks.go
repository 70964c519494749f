// Package hooks provides fallback.ErrorHook implementations for logging,
// tracing and counting the failures a fallback.Model recovers from.
package hooks

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/fallback"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logging returns a hook that logs each failure at warn level.
func Logging(logger *slog.Logger) fallback.ErrorHook {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, err error, modelID string) error {
		attrs := []any{"model", modelID, "error", err}
		if code := relay.StatusCodeOf(err); code != 0 {
			attrs = append(attrs, "status", code)
		}
		logger.WarnContext(ctx, "model request failed", attrs...)
		return nil
	}
}

// ModelErrorEvent is the span event name recorded by Tracing.
const ModelErrorEvent = "relay.model_error"

// Tracing returns a hook that records each failure on the span in ctx.
// Without a recording span, it starts and ends a short span of its own.
func Tracing(tracer trace.Tracer) fallback.ErrorHook {
	return func(ctx context.Context, err error, modelID string) error {
		attrs := []attribute.KeyValue{
			attribute.String("relay.model", modelID),
		}
		if code := relay.StatusCodeOf(err); code != 0 {
			attrs = append(attrs, attribute.Int("http.response.status_code", code))
		}

		span := trace.SpanFromContext(ctx)
		if span.IsRecording() {
			span.RecordError(err, trace.WithAttributes(attrs...))
			return nil
		}

		_, span = tracer.Start(ctx, ModelErrorEvent, trace.WithAttributes(attrs...))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil
	}
}

// Chain returns a hook running every hook in order. All hooks run even if
// one fails; their errors are joined.
func Chain(hooks ...fallback.ErrorHook) fallback.ErrorHook {
	return func(ctx context.Context, err error, modelID string) error {
		var errs []error
		for _, hook := range hooks {
			if hook == nil {
				continue
			}
			if hookErr := hook(ctx, err, modelID); hookErr != nil {
				errs = append(errs, hookErr)
			}
		}
		return errors.Join(errs...)
	}
}

// Counter counts failures per model. The zero value is ready to use.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int
	total  int
}

// Hook returns a hook recording into c.
func (c *Counter) Hook() fallback.ErrorHook {
	return func(ctx context.Context, err error, modelID string) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.counts == nil {
			c.counts = make(map[string]int)
		}
		c.counts[modelID]++
		c.total++
		return nil
	}
}

// Count returns the failures recorded for a model.
func (c *Counter) Count(modelID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[modelID]
}

// Total returns the failures recorded across all models.
func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Snapshot returns a copy of the per-model counts.
func (c *Counter) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Reset clears all counts.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = nil
	c.total = 0
}
