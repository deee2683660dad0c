package collab

import (
	"errors"
	"fmt"
)

// ValidationError reports missing or malformed caller input. Never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "collab: validation: " + e.Msg
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("collab: %s not found: %s", e.Entity, e.ID)
}

// ConflictError reports a state-machine violation, such as responding to
// an already-responded approval or transitioning a terminal task.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return "collab: conflict: " + e.Msg
}

// validationf builds a ValidationError from a format string.
func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// conflictf builds a ConflictError from a format string.
func conflictf(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
