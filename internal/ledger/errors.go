package ledger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
	ErrOperationFailed  = errors.New("operation failed")
)

// ValidationError reports malformed or missing input, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a problem with field. It is safe to call on a zero value.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}

	e.Fields[field] = msg
}

// OrNil returns nil when no field problems were recorded, so callers can
// `return v.OrNil()` after collecting.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}

	return e
}

// Denied wraps ErrPermissionDenied with a human-readable reason.
func Denied(reason string) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, reason)
}

// Conflicted wraps ErrConflict with a human-readable reason.
func Conflicted(reason string) error {
	return fmt.Errorf("%w: %s", ErrConflict, reason)
}

// Failed marks err as the cause of an aborted atomic unit. Kinds that already
// carry an HTTP meaning (not found, permission, validation) pass through untouched.
func Failed(err error) error {
	var verr *ValidationError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrConflict) || errors.As(err, &verr) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrOperationFailed, err)
}
