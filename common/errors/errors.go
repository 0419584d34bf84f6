package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an application error carrying the HTTP status it maps to.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports an absent aggregate (cart, order, payment) for a given key.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Code: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation reports a malformed request field, surfaced before any mutation.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// InvalidState reports an operation attempted from a state that forbids it.
func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Code: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

// Unsupported reports a configuration error such as an unknown payment method.
func Unsupported(format string, args ...interface{}) *Error {
	return &Error{Code: http.StatusUnprocessableEntity, Message: fmt.Sprintf(format, args...)}
}

// Processing reports a downstream processor failure. The wrapped error is
// preserved for logs; only Message is serialized to clients.
func Processing(err error, format string, args ...interface{}) *Error {
	return &Error{Code: http.StatusBadGateway, Message: fmt.Sprintf(format, args...), Err: err}
}

// Internal wraps an unexpected failure (storage, serialization).
func Internal(err error, format string, args ...interface{}) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsNotFound reports whether err is a NotFound application error.
func IsNotFound(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == http.StatusNotFound
}

// IsInvalidState reports whether err is an InvalidState application error.
func IsInvalidState(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == http.StatusConflict
}

// Respond writes err to the gin context, defaulting to 500 for unknown types.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = &Error{Code: http.StatusInternalServerError, Message: "Internal server error", Err: err}
	}
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
