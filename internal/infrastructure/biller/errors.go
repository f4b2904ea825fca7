package biller

import (
	"errors"
	"fmt"
)

// BillerError is a non-2xx answer from a biller. Body is the raw response.
type BillerError struct {
	Code       string
	Message    string
	StatusCode int
	Body       []byte
}

func (e *BillerError) Error() string {
	return fmt.Sprintf("biller error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

func (e *BillerError) IsRetryable() bool {
	return e.StatusCode >= 500
}

func IsBillerError(err error) (*BillerError, bool) {
	var billerErr *BillerError
	ok := errors.As(err, &billerErr)
	return billerErr, ok
}
