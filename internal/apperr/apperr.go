// Package apperr defines the caller-facing error taxonomy of the moderation engine.
//
// Every error type matches its kind sentinel with errors.Is, so callers can branch on
// the kind without caring about the payload:
//
//	if errors.Is(err, apperr.ErrNotFound) { ... }
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Kind sentinels.
var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
)

// ValidationError reports malformed input.
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

// Validation returns a ValidationError for field.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError reports a uniqueness violation.
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Message)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// Conflict returns a ConflictError for resource.
func Conflict(resource, message string) error {
	return &ConflictError{Resource: resource, Message: message}
}

// NotFoundError reports an unknown id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns a NotFoundError for resource id.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// InvalidTransitionError reports an attempt to move a flag out of a terminal state.
// It carries who resolved the flag and when, so duplicate moderation work is visible.
type InvalidTransitionError struct {
	FlagID     string
	Status     string
	ReviewedBy *string
	ReviewedAt *time.Time
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("flag %s already resolved as %s", e.FlagID, e.Status)
	if e.ReviewedBy != nil {
		msg += " by " + *e.ReviewedBy
	}
	if e.ReviewedAt != nil {
		msg += " at " + e.ReviewedAt.UTC().Format(time.RFC3339)
	}
	return msg
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }
