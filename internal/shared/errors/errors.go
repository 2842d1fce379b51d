package errors

import (
	"errors"
	"fmt"
)

// Engine errors. Callers match with errors.Is.
var (
	// ErrValidation marks caller mistakes: framework counts outside the
	// allowed range, unknown IDs requested explicitly. Requests failing
	// validation are rejected with no partial result.
	ErrValidation = errors.New("validation error")

	// ErrUpstreamUnavailable marks a failed collaborator read, so callers
	// can distinguish "no data" from "engine says zero". The engine never
	// retries; retry policy belongs to the caller.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// Lookup errors
	ErrFrameworkNotFound = errors.New("framework not found")
	ErrControlNotFound   = errors.New("control not found")

	// Repository errors
	ErrRepositoryOperation   = errors.New("repository operation failed")
	ErrDeserializationFailed = errors.New("deserialization failed")
)

// Validationf builds an ErrValidation-wrapped error with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Upstream wraps a collaborator read failure, tagging the operation that
// failed.
func Upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, op, err)
}
