package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// ValidationErrorMessage describes request payloads that failed validation.
	ValidationErrorMessage = "request validation failed"
	// NotFoundMessage describes lookups that matched nothing.
	NotFoundMessage = "resource not found"
	// StorageErrorMessage describes profile store failures.
	StorageErrorMessage = "storage operation failed"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// NotFound marks err as a 404.
func NotFound(err error, message string) *AppError {
	if message == "" {
		message = NotFoundMessage
	}
	return New(err, http.StatusNotFound, message)
}

// Validation marks err as a 422, the status the chat endpoint uses for bad payloads.
func Validation(err error) *AppError {
	return New(err, http.StatusUnprocessableEntity, ValidationErrorMessage)
}

// WrapStorage wraps a database error with a consistent status code and message.
func WrapStorage(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusInternalServerError, StorageErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500 when err is not an AppError.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether the target matches the underlying error.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
