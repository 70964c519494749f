package anthropic

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spetersoncode/relay"
)

// wrapError annotates an SDK error with the provider, model and HTTP status.
func wrapError(err error, model string) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return relay.NewError(relay.ProviderAnthropic, model, apiErr.StatusCode, err)
	}
	// Network and decoding errors carry no status; the classifier falls back
	// to their message.
	return relay.NewError(relay.ProviderAnthropic, model, 0, err)
}
