package note

import (
	"errors"
	"fmt"
)

// ErrNotFound covers both a missing note id and an id owned by someone else.
// Callers must not be able to tell the two apart.
var ErrNotFound = errors.New("note not found")

// ValidationError is an expected, recoverable input failure. Reason is
// user-facing and names the violated rule.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
