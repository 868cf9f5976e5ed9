package llm

import (
	"errors"
	"fmt"
)

// TransientError indicates a failure worth retrying: rate limits, server
// errors, network timeouts.
type TransientError struct {
	StatusCode int
	Message    string
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient service error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// FatalError indicates a failure retrying cannot help with: bad credentials
// or a permanently malformed request.
type FatalError struct {
	StatusCode int
	Message    string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal service error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// ValidationError indicates the service responded, but the response did not
// conform to the expected shape. Often recoverable by retrying with the same
// input, since model output is not deterministic.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("response validation failed: %s", e.Reason)
}

// IsTransient reports whether err is a transient service error.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsValidation reports whether err is a response-shape validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
