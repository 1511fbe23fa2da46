package ingestion

import (
	"errors"
	"fmt"

	"github.com/jonathan/justabill/internal/congress"
	"github.com/jonathan/justabill/internal/types"
)

var (
	// ErrNotFound is returned when the source has no record of the bill
	ErrNotFound = congress.ErrNotFound
	// ErrInvalidRequest is returned when the ingestion request fails validation
	ErrInvalidRequest = errors.New("invalid ingestion request")
)

// RequestError describes a rejected ingestion request.
type RequestError struct {
	Bill  types.BillIdentity
	Cause error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s for bill %s: %v", ErrInvalidRequest, e.Bill, e.Cause)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// Is matches ErrInvalidRequest.
func (e *RequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}
