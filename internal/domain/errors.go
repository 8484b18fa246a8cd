package domain

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching; the typed errors below all match one of them.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")
	ErrConflict   = errors.New("conflict")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field, msg string) error { return &ValidationError{Field: field, Message: msg} }

type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func NotFound(entity, key string) error { return &NotFoundError{Entity: entity, Key: key} }

// StorageError wraps a backend failure. Unavailable marks connection-level
// problems (timeouts, refused connections) that are worth retrying.
type StorageError struct {
	Op          string
	Unavailable bool
	Err         error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Op + ": storage failure"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error        { return e.Err }
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func Storage(op string, err error) error { return &StorageError{Op: op, Err: err} }

func Unavailable(op string, err error) error {
	return &StorageError{Op: op, Unavailable: true, Err: err}
}

type ConflictError struct {
	Entity string
	Key    string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Entity, e.Key, e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func Conflict(entity, key, reason string) error {
	return &ConflictError{Entity: entity, Key: key, Reason: reason}
}
