// Package provider holds helpers shared by the SDK adapters.
package provider

import (
	"context"

	"github.com/spetersoncode/relay"
)

// DefaultMaxTokens is used when a request does not set MaxTokens and the
// provider requires a limit.
const DefaultMaxTokens = 4096

// Send delivers event on ch. It returns false without sending once ctx is
// done, so producers stop when nobody is reading.
func Send(ctx context.Context, ch chan<- relay.StreamEvent, event relay.StreamEvent) bool {
	select {
	case ch <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// ModelFor returns the model requested in options, or fallback when none is set.
func ModelFor(options *relay.Options, fallback string) string {
	if options.Model != "" {
		return options.Model
	}
	return fallback
}
