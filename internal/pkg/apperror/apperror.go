package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across services. Controllers never switch on these
// directly; the error handler middleware maps them to HTTP statuses.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION"
	CodeNotJoined    = "NOT_JOINED"
	CodeStore        = "STORE"
)

type AppError struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewUnauthorized covers missing or invalid credentials.
func NewUnauthorized(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Status: fiber.StatusUnauthorized, Message: message}
}

// NewForbidden covers a valid identity that is not a party to the appointment.
func NewForbidden(message string) *AppError {
	return &AppError{Code: CodeForbidden, Status: fiber.StatusForbidden, Message: message}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Status: fiber.StatusNotFound, Message: message}
}

func NewValidation(message string) *AppError {
	return &AppError{Code: CodeValidation, Status: fiber.StatusBadRequest, Message: message}
}

// NewNotJoined covers a send attempted while the session is not in a room.
func NewNotJoined(message string) *AppError {
	return &AppError{Code: CodeNotJoined, Status: fiber.StatusConflict, Message: message}
}

// NewStore wraps a persistence layer failure.
func NewStore(message string, err error) *AppError {
	return &AppError{Code: CodeStore, Status: fiber.StatusInternalServerError, Message: message, Err: err}
}

// As extracts an *AppError from an error chain, or nil.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsCode reports whether err carries the given application error code.
func IsCode(err error, code string) bool {
	appErr := As(err)
	return appErr != nil && appErr.Code == code
}
