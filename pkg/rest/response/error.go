package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	GeneralErrorKey = "general"

	MissedValue             = "missed_value"
	InvalidValue            = "invalid_value"
	InvalidRequestStructure = "invalid_request_structure"
)

// Error is a REST-facing error value carrying its own HTTP status.
type Error interface {
	Status() int
	Payload() interface{}
}

// ErrorMessage is one field-level validation failure.
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type messageError struct {
	status  int
	Message string `json:"message"`
}

func (e *messageError) Status() int          { return e.status }
func (e *messageError) Payload() interface{} { return e }

func NewInternalError() Error {
	return &messageError{status: http.StatusInternalServerError, Message: "internal server error"}
}

func NewUnauthorizedError() Error {
	return &messageError{status: http.StatusUnauthorized, Message: "unauthorized"}
}

func NewForbiddenError(message string) Error {
	if message == "" {
		message = "forbidden"
	}
	return &messageError{status: http.StatusForbidden, Message: message}
}

func NewNotFoundError(message string) Error {
	if message == "" {
		message = "not found"
	}
	return &messageError{status: http.StatusNotFound, Message: message}
}

func NewConflictError(message string) Error {
	if message == "" {
		message = "conflict"
	}
	return &messageError{status: http.StatusConflict, Message: message}
}

func NewTimeoutError(message string) Error {
	if message == "" {
		message = "the operation timed out"
	}
	return &messageError{status: http.StatusGatewayTimeout, Message: message}
}

// NewRemoteError forwards a collaborator's message. Client-error statuses
// pass through; anything else collapses to a generic 500.
func NewRemoteError(statusCode int, message string) Error {
	if message == "" {
		message = "something went wrong, please try again"
	}
	if statusCode < http.StatusBadRequest || statusCode >= http.StatusInternalServerError {
		statusCode = http.StatusInternalServerError
	}
	return &messageError{status: statusCode, Message: message}
}

// ValidationError aggregates per-field failures under 422.
type ValidationError struct {
	Errors map[string]ErrorMessage `json:"errors"`
}

func NewValidationError(errs ...map[string]ErrorMessage) *ValidationError {
	ve := &ValidationError{Errors: make(map[string]ErrorMessage)}
	for _, m := range errs {
		for key, msg := range m {
			ve.Errors[key] = msg
		}
	}
	return ve
}

func (e *ValidationError) SetError(key, code, message string) {
	e.Errors[key] = ErrorMessage{Code: code, Message: message}
}

func (e *ValidationError) Status() int          { return http.StatusUnprocessableEntity }
func (e *ValidationError) Payload() interface{} { return e }

// HandleError writes the error to the response and stops the chain.
func HandleError(err Error, c *gin.Context) {
	c.AbortWithStatusJSON(err.Status(), err.Payload())
}
