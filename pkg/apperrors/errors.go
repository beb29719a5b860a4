package apperrors

import "fmt"

// ValidationError indicates a request that is well-formed but semantically
// invalid: empty rejection note, empty title, non-positive point value, etc.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// PermissionError indicates an actor attempting an operation their role or
// goal ownership does not allow.
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string {
	return e.Msg
}

// InvariantViolation indicates corrupted entity state that should never occur
// if the API contract is followed (duplicate same-day completions, a deletion
// request with no timestamp). It is surfaced rather than silently repaired.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string {
	return e.Msg
}

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func Permission(format string, args ...interface{}) error {
	return &PermissionError{Msg: fmt.Sprintf(format, args...)}
}

func Invariant(format string, args ...interface{}) error {
	return &InvariantViolation{Msg: fmt.Sprintf(format, args...)}
}
