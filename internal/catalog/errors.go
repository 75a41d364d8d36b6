package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidReference marks input that does not match any known
	// catalog path shape.
	ErrInvalidReference = errors.New("invalid catalog reference")

	// ErrNotFound is returned when the catalog reports a missing entity.
	ErrNotFound = errors.New("content not found")

	// ErrUnstreamable is returned when an item cannot be streamed at the
	// requested quality tier (or at all, once fallback is exhausted).
	ErrUnstreamable = errors.New("item not streamable")
)

// NetworkError wraps a transport failure, distinct from the catalog
// reporting unavailability.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
