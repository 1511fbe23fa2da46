package congress

import (
	"errors"
	"fmt"

	"github.com/jonathan/justabill/internal/types"
)

// ErrNotFound is matched by errors.Is for any NotFoundError.
var ErrNotFound = errors.New("bill not found")

// NotFoundError is returned when the source has no record of a bill.
type NotFoundError struct {
	Bill  types.BillIdentity
	Cause error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("bill %s not found in congress API", e.Bill)
}

func (e *NotFoundError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DecodeError is returned when a response body is not the expected JSON.
type DecodeError struct {
	URL   string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v", e.URL, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
