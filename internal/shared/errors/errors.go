package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies application errors so adapters can map them to transport codes.
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeConflict       ErrorType = "CONFLICT_ERROR"
	ErrorTypePrecondition   ErrorType = "PRECONDITION_ERROR"
	ErrorTypeAuthentication ErrorType = "AUTHENTICATION_ERROR"
	ErrorTypeInfrastructure ErrorType = "INFRASTRUCTURE_ERROR"
	ErrorTypeInternal       ErrorType = "INTERNAL_ERROR"
)

// Firestore-style status codes returned to clients.
const (
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeFailedPrecondition = "FAILED_PRECONDITION"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeUnavailable        = "UNAVAILABLE"
	CodeInternal           = "INTERNAL"
)

// Sentinel errors shared by the store adapters and use cases.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrDocumentExists      = errors.New("document already exists")
	ErrInvalidPath         = errors.New("invalid firestore path")
	ErrInvalidDocumentID   = errors.New("invalid document ID")
	ErrInvalidFilter       = errors.New("invalid filter")
	ErrDeleteNotConfirmed  = errors.New("delete was not confirmed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrEventStoreDisabled  = errors.New("event store is not configured")
	ErrStoreNotInitialized = errors.New("document store is not initialized")
)

// AppError carries an error category, a transport status and optional details.
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	HTTPCode  int                    `json:"-"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(errorType ErrorType, message string, httpCode int) *AppError {
	return &AppError{
		Type:     errorType,
		Message:  message,
		HTTPCode: httpCode,
		Details:  make(map[string]interface{}),
	}
}

func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent records which component raised the error
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message, http.StatusBadRequest).WithCode(CodeInvalidArgument)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound).WithCode(CodeNotFound)
}

func NewConflictError(message string) *AppError {
	return NewAppError(ErrorTypeConflict, message, http.StatusConflict).WithCode(CodeAlreadyExists)
}

func NewPreconditionError(message string) *AppError {
	return NewAppError(ErrorTypePrecondition, message, http.StatusPreconditionFailed).WithCode(CodeFailedPrecondition)
}

func NewAuthenticationError(message string) *AppError {
	return NewAppError(ErrorTypeAuthentication, message, http.StatusUnauthorized).WithCode(CodeUnauthenticated)
}

func NewInfrastructureError(message string) *AppError {
	return NewAppError(ErrorTypeInfrastructure, message, http.StatusServiceUnavailable).WithCode(CodeUnavailable)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message, http.StatusInternalServerError).WithCode(CodeInternal)
}

// WrapError returns err unchanged if it already is an AppError, otherwise wraps it as internal.
func WrapError(err error, message string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// AsAppError extracts the AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// hasType reports whether err is an AppError of type t, or, for plain errors,
// wraps one of the sentinels.
func hasType(err error, t ErrorType, sentinels ...error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Type == t
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func IsNotFound(err error) bool {
	return hasType(err, ErrorTypeNotFound, ErrNotFound, ErrDocumentNotFound)
}

func IsValidation(err error) bool {
	return hasType(err, ErrorTypeValidation, ErrInvalidPath, ErrInvalidDocumentID, ErrInvalidFilter)
}

func IsConflict(err error) bool {
	return hasType(err, ErrorTypeConflict, ErrDocumentExists)
}

// IsPrecondition covers unmet preconditions such as a missing delete confirmation.
func IsPrecondition(err error) bool {
	return hasType(err, ErrorTypePrecondition, ErrDeleteNotConfirmed, ErrEventStoreDisabled)
}

func IsAuthentication(err error) bool {
	return hasType(err, ErrorTypeAuthentication, ErrUnauthorized)
}

// Is and As re-export the standard helpers so callers need a single errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

// New re-exports errors.New.
func New(text string) error { return errors.New(text) }
