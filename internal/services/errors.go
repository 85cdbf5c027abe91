package services

import "errors"

// ErrorKind classifies lifecycle failures for the HTTP boundary.
type ErrorKind int

const (
	KindUnauthenticated ErrorKind = iota + 1
	KindValidation
	KindNotFound
	KindStorageWrite
	KindStorageDelete
	KindPersistence
	// KindPartialFailure means a blob was written but neither committed nor
	// cleaned up.
	KindPartialFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStorageWrite:
		return "storage_write"
	case KindStorageDelete:
		return "storage_delete"
	case KindPersistence:
		return "persistence"
	case KindPartialFailure:
		return "partial_failure"
	default:
		return "unknown"
	}
}

// Error is returned by every WishlistService operation.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a service error, or 0 for foreign errors.
func KindOf(err error) ErrorKind {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return 0
}

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
