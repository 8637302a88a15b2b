package speech

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidRateLimit is returned when the rate limit is negative.
	ErrInvalidRateLimit = errors.New("speech: rate limit must not be negative")

	// ErrNoSynthesizer is returned when a dispatcher is built without a synthesizer.
	ErrNoSynthesizer = errors.New("speech: synthesizer required")

	// ErrShutdown is returned by operations on a dispatcher or synthesizer
	// that was shut down.
	ErrShutdown = errors.New("speech: shut down")

	// ErrNotConnected is returned when a remote synthesizer has no connection.
	ErrNotConnected = errors.New("speech: not connected")

	// ErrNoURL is returned when a remote synthesizer has no endpoint.
	ErrNoURL = errors.New("speech: remote URL required")
)

// SynthesizerError wraps an error with synthesizer context.
type SynthesizerError struct {
	Synthesizer string
	Op          string
	Err         error
}

// Error implements the error interface.
func (e *SynthesizerError) Error() string {
	return fmt.Sprintf("speech [%s]: %s: %v", e.Synthesizer, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *SynthesizerError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with synthesizer context.
func WrapError(synthesizer, op string, err error) error {
	if err == nil {
		return nil
	}
	return &SynthesizerError{Synthesizer: synthesizer, Op: op, Err: err}
}
