package app

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNoSchoolSelected     = errors.New("no school selected")
	ErrNoCoachSelected      = errors.New("no coach selected")
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
	ErrSchoolNotFound       = errors.New("school not found")
	ErrCoachNotFound        = errors.New("coach not found")
	ErrTeacherNotFound      = errors.New("teacher not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrWrongScreen          = errors.New("action not available on this screen")
)

// FieldError is used to indicate an error with a specific form field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned when form input fails validation. It is recovered
// locally by showing the field errors next to the kept form values.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// AuthenticationError is returned by Login for unknown users and wrong passwords.
type AuthenticationError struct {
	Username string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for %q", e.Username)
}

// ServiceUnavailableError wraps a failed call to a collaborator (database,
// image store, bot API). The user may retry.
type ServiceUnavailableError struct {
	Op  string
	Err error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("%s: service unavailable: %v", e.Op, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var sue *ServiceUnavailableError
	if errors.As(err, &sue) {
		return err
	}
	return &ServiceUnavailableError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

func IsServiceUnavailable(err error) bool {
	var sue *ServiceUnavailableError
	return errors.As(err, &sue)
}
