package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is returned for operations reserved to superusers.
	ErrPermissionDenied = errors.New("permission denied")
)

// ValidationError reports invalid record/domain content or a conflict with existing records.
type ValidationError struct {
	Field          string
	Message        string
	ConflictingIDs []string
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if len(e.ConflictingIDs) > 0 {
		msg += ": " + strings.Join(e.ConflictingIDs, ", ")
	}
	return msg
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports a missing reference that a decision depends on,
// e.g. a record without a resolvable domain.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConfiguration reports whether err carries a *ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
