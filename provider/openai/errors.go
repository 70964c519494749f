package openai

import (
	"errors"

	"github.com/openai/openai-go"
	"github.com/spetersoncode/relay"
)

// wrapError annotates an SDK error with the provider, model and HTTP status.
func wrapError(err error, model string) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return relay.NewError(relay.ProviderOpenAI, model, apiErr.StatusCode, err)
	}
	return relay.NewError(relay.ProviderOpenAI, model, 0, err)
}
