package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrFatal           = errors.New("consistency violation")
	ErrUnauthenticated = errors.New("unauthenticated")
)

type ErrorKind string

const (
	KindNotFound        ErrorKind = "NotFound"
	KindForbidden       ErrorKind = "Forbidden"
	KindInvalidState    ErrorKind = "InvalidState"
	KindInvalidInput    ErrorKind = "InvalidInput"
	KindConflict        ErrorKind = "Conflict"
	KindFatal           ErrorKind = "Fatal"
	KindUnauthenticated ErrorKind = "Unauthenticated"
	KindInternal        ErrorKind = "Internal"
)

// KindOf classifies err against the taxonomy. Fatal wins over NotFound so a
// missing transaction at completion is never mistaken for a user error.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFatal):
		return KindFatal
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	}
	return KindInternal
}
