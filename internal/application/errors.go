package application

import (
	"errors"
	"fmt"

	"github.com/oksasatya/go-user-admin/pkg/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrRoleExists         = errors.New("role already exists")
	ErrSessionNotFound    = errors.New("session not found")
	ErrForbidden          = errors.New("forbidden")
)

// EmailInUseMessage is reported against the email field when it is taken.
const EmailInUseMessage = "email already in use"

// RoleNotFoundError names the role id that failed to resolve during a user write.
type RoleNotFoundError struct {
	ID int64
}

func (e *RoleNotFoundError) Error() string {
	return fmt.Sprintf("role not found with id: %d", e.ID)
}

func (e *RoleNotFoundError) Unwrap() error { return ErrRoleNotFound }

// ValidationError carries field errors found before persistence.
type ValidationError struct {
	Fields []validation.FieldError
}

func NewValidationError(fields ...validation.FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return validation.Join(e.Fields)
}

// HasField reports whether name was rejected.
func (e *ValidationError) HasField(name string) bool {
	for _, f := range e.Fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

func emailInUse() *ValidationError {
	return NewValidationError(validation.FieldError{Field: "email", Message: EmailInUseMessage})
}
