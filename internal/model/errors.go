package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the error kinds callers translate into messages.
var (
	// ErrNotFound indicates an unresolved task, artifact or dependency id.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a stale expected version or a duplicate row.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates a rejected mutation (bad parent, unknown artifacts, ...).
	ErrValidation = errors.New("validation failed")

	// ErrStorage indicates the relational store failed, e.g. a transaction
	// could not be started or committed.
	ErrStorage = errors.New("storage failure")
)

// ErrorKind is the caller-facing classification of an error.
type ErrorKind string

const (
	KindNotFound   ErrorKind = "NOT_FOUND"
	KindConflict   ErrorKind = "CONFLICT"
	KindValidation ErrorKind = "VALIDATION"
	KindStorage    ErrorKind = "STORAGE"
)

// KindOf classifies err. Anything not recognised is a storage failure.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindStorage
	}
}

// NotFoundError reports an id that does not resolve to a row.
type NotFoundError struct {
	Entity string // "task", "artifact", "dependency", "from task", ...
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q: not found", e.Entity, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound returns a *NotFoundError.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports an optimistic-concurrency mismatch or a duplicate.
type ConflictError struct {
	ID       string
	Expected int
	Actual   int
	Reason   string
}

func (e *ConflictError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("conflict on %q: %s", e.ID, e.Reason)
	}
	return fmt.Sprintf("conflict on %q: expected version %d, found %d", e.ID, e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrConflict) match.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
