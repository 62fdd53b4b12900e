package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response format. Code mirrors the HTTP status.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"msg"`
	Data    interface{} `json:"data,omitempty"`
}

// Kind classifies an AppError.
type Kind string

const (
	KindMissingField   Kind = "MissingField"
	KindInvalidType    Kind = "InvalidType"
	KindInvalidLength  Kind = "InvalidLength"
	KindUnauthorized   Kind = "Unauthorized"
	KindNotFound       Kind = "NotFound"
	KindForbidden      Kind = "Forbidden"
	KindConflict       Kind = "Conflict"
	KindStorageFailure Kind = "StorageFailure"
	KindBadRequest     Kind = "BadRequest"
)

// AppError represents a structured application error with HTTP status and error code.
type AppError struct {
	Kind       Kind
	HTTPStatus int    // HTTP status code (e.g. 400, 404, 500)
	Code       int    // Application-level error code
	Message    string // Human-readable error message
}

func (e *AppError) Error() string {
	return e.Message
}

func newError(kind Kind, status int, msg string) *AppError {
	return &AppError{Kind: kind, HTTPStatus: status, Code: status, Message: msg}
}

// Pre-defined error constructors

func NewBadRequest(msg string) *AppError {
	return newError(KindBadRequest, http.StatusBadRequest, msg)
}

func NewMissingField(msg string) *AppError {
	return newError(KindMissingField, http.StatusBadRequest, msg)
}

func NewInvalidType(msg string) *AppError {
	return newError(KindInvalidType, http.StatusBadRequest, msg)
}

func NewInvalidLength(msg string) *AppError {
	return newError(KindInvalidLength, http.StatusBadRequest, msg)
}

func NewUnauthorized(msg string) *AppError {
	return newError(KindUnauthorized, http.StatusUnauthorized, msg)
}

func NewForbidden(msg string) *AppError {
	return newError(KindForbidden, http.StatusForbidden, msg)
}

func NewNotFound(msg string) *AppError {
	return newError(KindNotFound, http.StatusNotFound, msg)
}

func NewConflict(msg string) *AppError {
	return newError(KindConflict, http.StatusConflict, msg)
}

func NewStorageFailure(msg string) *AppError {
	return newError(KindStorageFailure, http.StatusInternalServerError, msg)
}

// NewNotFoundf formats a NotFound message.
func NewNotFoundf(format string, args ...interface{}) *AppError {
	return NewNotFound(fmt.Sprintf(format, args...))
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: msg,
		Data:    data,
	})
}

// OK sends a 200 OK response without data.
func OK(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: msg})
}

// Error sends an error response. If err is an *AppError, its code and status
// are used; otherwise a generic 500 internal server error is returned.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{
			Code:    appErr.Code,
			Message: appErr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{
		Code:    500,
		Message: err.Error(),
	})
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: 400, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Code: 401, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, Response{Code: 403, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: 404, Message: msg})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, Response{Code: 500, Message: msg})
}
