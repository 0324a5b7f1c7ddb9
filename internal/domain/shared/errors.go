package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError so callers can react without parsing codes
type ErrorKind string

const (
	KindValidation    ErrorKind = "VALIDATION"
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindAuthorization ErrorKind = "AUTHORIZATION"
	KindState         ErrorKind = "STATE"
	KindConflict      ErrorKind = "CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"-"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target matches this error.
// A kind sentinel (Code equal to its Kind) matches every error of that kind,
// any other target matches on Code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Code == string(t.Kind) {
		return t.Kind == e.Kind
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error of the given kind
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports malformed or out-of-range input
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// NewNotFoundError reports a missing entity or one outside the caller's tenant
func NewNotFoundError(entity string, id fmt.Stringer) *DomainError {
	return NewDomainError(KindNotFound, "NOT_FOUND", fmt.Sprintf("%s %s not found", entity, id))
}

// NewAuthorizationError reports cross-tenant access or an insufficient role
func NewAuthorizationError(code, message string) *DomainError {
	return NewDomainError(KindAuthorization, code, message)
}

// NewStateError reports an operation that is illegal in the entity's current state
func NewStateError(code, message string) *DomainError {
	return NewDomainError(KindState, code, message)
}

// NewConflictError reports a concurrent modification
func NewConflictError(code, message string) *DomainError {
	return NewDomainError(KindConflict, code, message)
}

// KindOf returns the kind of err if it is (or wraps) a DomainError
func KindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// Kind sentinels, usable with errors.Is
var (
	ErrInvalidInput        = NewDomainError(KindValidation, string(KindValidation), "Invalid input provided")
	ErrNotFound            = NewDomainError(KindNotFound, string(KindNotFound), "Resource not found")
	ErrForbidden           = NewDomainError(KindAuthorization, string(KindAuthorization), "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError(KindState, string(KindState), "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError(KindConflict, string(KindConflict), "Resource was modified by another process")
)
