package services

import (
	"errors"

	"github.com/camden-git/moviesysbackend/validation"
)

// Kind classifies a service failure for the transport layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is returned by every CatalogService operation that fails.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	ErrActorNotFound = &Error{Kind: KindNotFound, Message: "Actor not found"}
	ErrMovieNotFound = &Error{Kind: KindNotFound, Message: "Movie not found"}
	ErrActorInUse    = &Error{Kind: KindConflict, Message: "Actor is referenced by existing movies"}
)

// Invalid builds a validation error with a caller supplied message.
func Invalid(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func fromValidation(err error) *Error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return &Error{Kind: KindValidation, Message: verr.Message, Fields: verr.Fields}
	}
	return &Error{Kind: KindValidation, Message: err.Error()}
}

func persistence(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// KindOf returns the Kind of err, or KindPersistence when err is not a
// service Error.
func KindOf(err error) Kind {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return KindPersistence
}
