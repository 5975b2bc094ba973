// Package apperror defines the error kinds shared by services and transports.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidState      = errors.New("invalid state")
)

// NotFound wraps ErrNotFound with the kind and id of the missing document.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// Conflict wraps ErrConflict with a message.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// InvalidState wraps ErrInvalidState with a message.
func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidState)
}

// Forbidden wraps ErrForbidden with a message.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrForbidden)
}

// ValidationError collects per-field problems.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty ValidationError
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a problem for field. The first message for a field wins.
func (v *ValidationError) Add(field, format string, args ...any) {
	if _, exists := v.Fields[field]; exists {
		return
	}
	v.Fields[field] = fmt.Sprintf(format, args...)
}

// Merge copies the fields of other under prefix.
func (v *ValidationError) Merge(prefix string, other error) {
	var ve *ValidationError
	if !errors.As(other, &ve) {
		if other != nil {
			v.Add(prefix, "%v", other)
		}
		return
	}
	for field, msg := range ve.Fields {
		v.Add(prefix+"."+field, "%s", msg)
	}
}

// Empty reports whether no problems were recorded.
func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

// Err returns nil when no problems were recorded, otherwise v.
func (v *ValidationError) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) true for any *ValidationError.
func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a single-field validation error.
func Invalid(field, format string, args ...any) error {
	v := NewValidationError()
	v.Add(field, format, args...)
	return v
}
