package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorKind is the category an AppError belongs to. It decides the HTTP status.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
)

// Machine-readable error codes returned to clients.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeRefreshTokenMismatch = "REFRESH_TOKEN_MISMATCH"
	CodeForbidden            = "FORBIDDEN"
	CodeSelfFollow           = "SELF_FOLLOW"
	CodeNotFound             = "NOT_FOUND"
	CodeUserExists           = "USER_EXISTS"
	CodeAlreadyFollowing     = "ALREADY_FOLLOWING"
	CodeAlreadyLiked         = "ALREADY_LIKED"
	CodeInternal             = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the error kind onto an HTTP status code.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindUnauthenticated:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func NewNotFoundError(resource string, id any) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    CodeValidation,
		Message: message,
	}
}

// NewInvalidCredentialsError is returned by login for an unknown email or a wrong password.
func NewInvalidCredentialsError() *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    CodeInvalidCredentials,
		Message: "Invalid credentials",
	}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{
		Kind:    KindUnauthenticated,
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

// NewInvalidTokenError wraps a signature, expiry or claim failure.
func NewInvalidTokenError(err error) *AppError {
	return &AppError{
		Kind:    KindUnauthenticated,
		Code:    CodeInvalidToken,
		Message: "Invalid or expired token",
		Err:     err,
	}
}

// NewRefreshTokenMismatchError is returned when a refresh token was rotated away or revoked.
func NewRefreshTokenMismatchError() *AppError {
	return &AppError{
		Kind:    KindUnauthenticated,
		Code:    CodeRefreshTokenMismatch,
		Message: "Refresh token is no longer valid",
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Kind:    KindForbidden,
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewSelfFollowError() *AppError {
	return &AppError{
		Kind:    KindForbidden,
		Code:    CodeSelfFollow,
		Message: "You can't follow yourself",
	}
}

func NewConflictError(code, message string) *AppError {
	return &AppError{
		Kind:    KindConflict,
		Code:    code,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// AsAppError converts any error into an AppError, treating unknown errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// RespondWithError writes a standardized error response. Internal causes are never exposed.
func RespondWithError(c *fiber.Ctx, err error) error {
	appErr := AsAppError(err)
	return c.Status(appErr.Status()).JSON(ErrorResponse{
		Error: appErr.Message,
		Code:  appErr.Code,
	})
}
