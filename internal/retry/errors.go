package retry

import (
	"encoding/json"
	"strings"

	"github.com/spetersoncode/relay"
)

// RetryableStatusCodes are HTTP statuses that always warrant another attempt.
// Any status of 500 or above is retryable as well.
var RetryableStatusCodes = []int{401, 403, 408, 409, 413, 429, 500}

// RetryableMessages is the vocabulary of transient-failure indicators,
// matched case-insensitively against error text.
var RetryableMessages = []string{
	"overloaded",
	"service unavailable",
	"bad gateway",
	"too many requests",
	"internal server error",
	"gateway timeout",
	"rate_limit",
	"wrong-key",
	"unexpected",
	"capacity",
	"timeout",
	"server_error",
	"429",
	"500",
	"502",
	"503",
	"504",
}

// IsRetryable determines if an error is transient and worth another attempt.
// Checks run in order:
//   - an HTTP status code in RetryableStatusCodes, or any 5xx and above
//   - the error message against RetryableMessages
//   - the JSON encoding of the whole error value against RetryableMessages,
//     for errors that keep their details in fields rather than the message
//
// An error that cannot be encoded is not retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if isRetryableStatusCode(relay.StatusCodeOf(err)) {
		return true
	}

	if containsRetryableMessage(err.Error()) {
		return true
	}

	data, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		return false
	}
	return containsRetryableMessage(string(data))
}

// isRetryableStatusCode checks a status against the fixed retryable set.
func isRetryableStatusCode(code int) bool {
	if code == 0 {
		return false
	}
	if code >= 500 {
		return true
	}
	for _, c := range RetryableStatusCodes {
		if c == code {
			return true
		}
	}
	return false
}

func containsRetryableMessage(s string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, pattern := range RetryableMessages {
		if strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}
