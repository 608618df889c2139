package httpx

import (
	"fmt"
	"net/http"
)

// Business error codes
const (
	CodeSuccess = 0

	// 1xxx authentication / authorization
	CodeUnauthorized = 1001 // not logged in / token missing
	CodeInvalidToken = 1002
	CodeTokenExpired = 1003
	CodeForbidden    = 1004 // role does not allow the operation

	// 2xxx parameters
	CodeParamMissing = 2001
	CodeParamInvalid = 2002
	CodeParamIllegal = 2003

	// 3xxx resources / state
	CodeNotFound      = 3001
	CodeAlreadyExists = 3002
	CodeStateConflict = 3003

	// 5xxx system
	CodeInternalError   = 5001
	CodeDatabaseError   = 5002
	CodeExternalError   = 5003 // device, snmp or redis unreachable
	CodeReconcileFailed = 5004
)

// AppError carries the HTTP status and business code for a failed request.
// Err is logged, never serialized.
type AppError struct {
	HTTPStatus int
	Code       int
	Message    string
	Err        error
	Data       interface{}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, message=%s, err=%v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("code=%d, message=%s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithData attaches extra detail returned in the data field
func (e *AppError) WithData(data interface{}) *AppError {
	e.Data = data
	return e
}

// NewAppError creates a new AppError
func NewAppError(httpStatus, code int, message string, err error) *AppError {
	return &AppError{
		HTTPStatus: httpStatus,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

func orDefault(message, def string) string {
	if message == "" {
		return def
	}
	return message
}

func ErrUnauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, orDefault(message, "unauthorized"), nil)
}

func ErrInvalidToken(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeInvalidToken, orDefault(message, "invalid token"), nil)
}

func ErrTokenExpired(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeTokenExpired, orDefault(message, "token expired"), nil)
}

func ErrForbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, orDefault(message, "forbidden"), nil)
}

func ErrParamMissing(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeParamMissing, orDefault(message, "parameter missing"), nil)
}

func ErrParamInvalid(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeParamInvalid, orDefault(message, "parameter format error"), nil)
}

func ErrParamIllegal(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeParamIllegal, orDefault(message, "parameter value illegal"), nil)
}

func ErrNotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, orDefault(message, "resource not found"), nil)
}

func ErrAlreadyExists(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeAlreadyExists, orDefault(message, "resource already exists"), nil)
}

func ErrStateConflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeStateConflict, orDefault(message, "current state does not allow operation"), nil)
}

func ErrInternalError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, orDefault(message, "internal error"), err)
}

func ErrDatabaseError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeDatabaseError, orDefault(message, "database error"), err)
}

// ErrExternalError creates a 502 for a failed downstream dependency
func ErrExternalError(message string, err error) *AppError {
	return NewAppError(http.StatusBadGateway, CodeExternalError, orDefault(message, "external dependency failure"), err)
}

// ErrReconcileFailed creates a 500 for a status update run that could not complete
func ErrReconcileFailed(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeReconcileFailed, orDefault(message, "failed to update device statuses"), err)
}
