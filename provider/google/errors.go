package google

import (
	"errors"
	"fmt"

	"github.com/spetersoncode/relay"
	"google.golang.org/genai"
)

// BlockedError is returned when Gemini refuses a prompt.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("prompt blocked: %s", e.Reason)
}

func checkBlocked(resp *genai.GenerateContentResponse) error {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}
	}
	return nil
}

// wrapError annotates an SDK error with the provider, model and HTTP status.
// genai.APIError does not expose response headers.
func wrapError(err error, model string) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return relay.NewError(relay.ProviderGoogle, model, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return relay.NewError(relay.ProviderGoogle, model, apiErrPtr.Code, err)
	}
	return relay.NewError(relay.ProviderGoogle, model, 0, err)
}
