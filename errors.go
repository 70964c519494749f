package relay

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when a required input slice is empty.
var ErrEmptyInput = errors.New("empty input")

// Error is a provider failure annotated with the HTTP status that produced it.
// Adapters return it so callers and classifiers can inspect the status
// without knowing which SDK raised the error.
type Error struct {
	Provider Provider `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	Msg      string   `json:"message"`
	Code     int      `json:"statusCode,omitempty"` // HTTP status code, 0 if not applicable
	Cause    error    `json:"-"`
}

// NewError creates a provider error.
func NewError(provider Provider, model string, code int, cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Provider: provider,
		Model:    model,
		Msg:      msg,
		Code:     code,
		Cause:    cause,
	}
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Msg)
	}
	return e.Msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *Error) StatusCode() int {
	return e.Code
}

// statusCoder is implemented by errors carrying an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// StatusCodeOf returns the HTTP status code carried by err or any error it
// wraps, or 0.
func StatusCodeOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// DescribeError renders err with the provider and status code when known.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var pe *Error
	if errors.As(err, &pe) {
		if pe.Model != "" {
			msg = fmt.Sprintf("%s (Model: %s)", msg, pe.Model)
		}
	}
	if code := StatusCodeOf(err); code != 0 {
		msg = fmt.Sprintf("%s (Status: %d)", msg, code)
	}
	return msg
}
