// Package fallback provides a relay.Model that keeps requests flowing when
// individual backend models fail.
//
// A Model wraps an ordered roster of backend models. Each call goes to the
// model at a shared cursor. Retryable failures (rate limits, overloads,
// server errors, timeouts) are retried with capped exponential backoff,
// then the cursor moves to the next model. Non-retryable failures are
// returned immediately. After ModelResetInterval the next call starts on
// the primary model again.
//
// Basic usage:
//
//	m, err := fallback.New([]relay.Model{primary, secondary},
//		fallback.WithMaxRetriesPerModel(2),
//		fallback.WithOnError(hooks.Logging(logger)),
//	)
//	resp, err := m.Chat(ctx, messages)
//
// Streams fail over as well. A stream that breaks before producing content
// continues on the next model without the consumer seeing anything from
// the failed one. A Model satisfies relay.Model, so controllers can be
// nested.
package fallback
