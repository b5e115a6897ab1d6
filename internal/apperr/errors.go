// Package apperr holds the sentinel errors shared across layers. Handlers map
// them to transport status codes with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyExists   = errors.New("already exists")
	ErrOutOfRange      = errors.New("index out of range")
	ErrInvalidDocument = errors.New("invalid document")
	ErrLimitExceeded   = errors.New("limit exceeded")
	ErrInvalidArgument = errors.New("invalid argument")
)
