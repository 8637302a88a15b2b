package navigation

import (
	"errors"
	"fmt"
)

// Sentinel errors for contract violations. Runtime conditions (bad
// detections, missing depth) degrade silently and never produce errors.
var (
	// ErrInvalidView is returned when a frame has a non-positive view size.
	ErrInvalidView = errors.New("navigation: view width and height must be positive")

	// ErrViewTooLarge is returned when a view side exceeds Config.MaxViewSize.
	// It wraps ErrInvalidView.
	ErrViewTooLarge = fmt.Errorf("%w: view exceeds the maximum size", ErrInvalidView)

	// ErrInvalidMaxView is returned for a non-positive maximum view size.
	ErrInvalidMaxView = errors.New("navigation: max view size must be positive")

	// ErrInvalidSafeDistance is returned for a non-positive or non-finite safe distance.
	ErrInvalidSafeDistance = errors.New("navigation: safe distance must be positive")

	// ErrUnknownLanguage is returned when no phrasebook matches a language.
	ErrUnknownLanguage = errors.New("navigation: unknown language")
)
