package dto

import (
	"errors"
	"net/http"

	"github.com/erp/receiving/internal/domain/shared"
)

// Error codes produced by the HTTP layer itself. Domain errors keep their own code.
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeUnauthorized    = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired    = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "ERR_TOKEN_INVALID"
	ErrCodeForbidden       = "ERR_FORBIDDEN"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// kindHTTPStatus maps domain error kinds to HTTP status codes
var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:    http.StatusBadRequest,
	shared.KindNotFound:      http.StatusNotFound,
	shared.KindAuthorization: http.StatusForbidden,
	shared.KindState:         http.StatusUnprocessableEntity,
	shared.KindConflict:      http.StatusConflict,
}

// StatusForKind returns the HTTP status for a domain error kind.
// Unknown kinds are 500.
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := kindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError converts err into a status code and error body.
// ok is false when err is not a domain error; the caller should log it.
func FromError(err error) (status int, info ErrorInfo, ok bool) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, ErrorInfo{
			Code:    ErrCodeInternal,
			Message: "An unexpected error occurred",
		}, false
	}
	return StatusForKind(de.Kind), ErrorInfo{Code: de.Code, Message: de.Message}, true
}
