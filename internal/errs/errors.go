package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = fmt.Errorf("not found")
	ErrForbidden  = fmt.Errorf("forbidden")
	ErrConflict   = fmt.Errorf("conflict")
	ErrValidation = fmt.Errorf("validation error")
	ErrInternal   = fmt.Errorf("internal error")
)

// Kind codes exposed to clients.
const (
	KindNotFound   = "not_found"
	KindForbidden  = "forbidden"
	KindConflict   = "conflict"
	KindValidation = "validation"
	KindInternal   = "internal"
)

// Kind classifies err into one of the Kind codes. Anything unrecognised is internal.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindInternal
	}
}

// Internal wraps a storage failure so callers can match ErrInternal and still see the cause.
func Internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
