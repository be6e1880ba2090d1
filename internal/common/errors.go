package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Business logic errors
var (
	// Content errors
	ErrContentNotFound = errors.New("content not found")
	ErrInvalidKind     = errors.New("invalid content kind")

	// Edit errors
	ErrPermissionDenied       = errors.New("you do not have permission to edit this content")
	ErrValidationFailed       = errors.New("validation failed")
	ErrConcurrentModification = errors.New("content has been modified by another user")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// ValidationError carries one message per rejected field.
// errors.Is(err, ErrValidationFailed) holds for every ValidationError.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError with the given field messages
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }
