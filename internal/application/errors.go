package application

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError is what the services hand to the REST layer: a stable code, the HTTP
// status it maps to and the cause, if any.
type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeIdempotencyMismatch = "IDEMPOTENCY_MISMATCH"
	ErrCodeRequestProcessing   = "REQUEST_PROCESSING"
	ErrCodeTimeout             = "TIMEOUT"
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeNotFound            = "TRANSACTION_NOT_FOUND"
	ErrCodeConflict            = "CONCURRENT_UPDATE"
	ErrCodeUnknownBiller       = "UNKNOWN_BILLER"
)

func newServiceError(code string, status int, message string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// NewIdempotencyMismatchError is returned when a key comes back with another charge.
func NewIdempotencyMismatchError() *ServiceError {
	return newServiceError(ErrCodeIdempotencyMismatch, http.StatusBadRequest,
		"Idempotency key was already used for a different charge", nil)
}

// NewRequestProcessingError is returned while the first request with a key is still in flight.
func NewRequestProcessingError() *ServiceError {
	return newServiceError(ErrCodeRequestProcessing, http.StatusAccepted,
		"A charge with this idempotency key is still being processed", nil)
}

func NewTimeoutError() *ServiceError {
	return newServiceError(ErrCodeTimeout, http.StatusRequestTimeout,
		"Timed out waiting for the transaction store", nil)
}

func NewInternalError(err error) *ServiceError {
	return newServiceError(ErrCodeInternal, http.StatusInternalServerError,
		"An internal error occurred", err)
}

func NewInvalidInputError(err error) *ServiceError {
	return newServiceError(ErrCodeInvalidInput, http.StatusBadRequest, "Invalid input", err)
}

// NewInvalidStateError wraps a rejected status transition.
func NewInvalidStateError(err error) *ServiceError {
	return newServiceError(ErrCodeInvalidState, http.StatusConflict,
		"Transaction status does not allow this operation", err)
}

func NewNotFoundError(id string) *ServiceError {
	return newServiceError(ErrCodeNotFound, http.StatusNotFound,
		fmt.Sprintf("transaction %s not found", id), nil)
}

// NewConflictError means another writer saved the transaction first.
func NewConflictError(err error) *ServiceError {
	return newServiceError(ErrCodeConflict, http.StatusConflict,
		"Transaction was modified concurrently", err)
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
