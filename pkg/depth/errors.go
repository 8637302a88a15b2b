package depth

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by Cache.Ensure wraps ErrUnavailable
// so callers can treat the whole family as "no depth this frame".
var (
	// ErrUnavailable is returned when no depth frame can be served.
	ErrUnavailable = errors.New("depth: unavailable")

	// ErrNoTimestamp is returned for frames with a zero timestamp.
	ErrNoTimestamp = fmt.Errorf("%w: zero timestamp", ErrUnavailable)

	// ErrNoSource is returned when Ensure has no way to acquire a plane.
	ErrNoSource = fmt.Errorf("%w: no plane source", ErrUnavailable)

	// ErrDiscarded is returned when a Reset happened while a plane was decoding.
	ErrDiscarded = fmt.Errorf("%w: decode discarded by reset", ErrUnavailable)
)

// DecodeError describes a plane that could not be decoded.
type DecodeError struct {
	Timestamp int64
	Reason    string
	Err       error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("depth: decode plane ts=%d: %s: %v", e.Timestamp, e.Reason, e.Err)
	}
	return fmt.Sprintf("depth: decode plane ts=%d: %s", e.Timestamp, e.Reason)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes every DecodeError match ErrUnavailable.
func (e *DecodeError) Is(target error) bool {
	return target == ErrUnavailable
}
