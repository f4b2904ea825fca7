package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/persistence"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/reconciliation"
)

// ErrorCategory represents the nature of an error for retry and logging
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryValidation     ErrorCategory = "VALIDATION"
	CategoryState          ErrorCategory = "STATE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

var validationErrors = []error{
	domain.ErrInvalidAmount,
	domain.ErrInvalidCurrency,
	domain.ErrInvalidRebill,
	domain.ErrInvalidCreditCardNumber,
	domain.ErrUnsupportedCardType,
	domain.ErrInvalidCVV,
	domain.ErrInvalidExpiration,
	domain.ErrInvalidBillerInteractionType,
	domain.ErrInvalidBillerInteractionPayload,
	domain.ErrInvalidTaxBreakdown,
	domain.ErrAfterTaxDoesNotMatchWithAmount,
	domain.ErrMissingMerchantInformation,
	domain.ErrMissingRequiredField,
	domain.ErrUnknownStatus,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeIdempotencyMismatch, ErrCodeInvalidInput, ErrCodeNotFound:
			return CategoryClientError
		case ErrCodeInvalidState:
			return CategoryState
		case ErrCodeConflict, ErrCodeTimeout, ErrCodeRequestProcessing:
			return CategoryTransient
		case ErrCodeInternal:
			return CategoryInfrastructure
		}
	}

	if isValidationError(err) {
		return CategoryValidation
	}

	if errors.Is(err, domain.ErrIllegalStateTransition) {
		return CategoryState
	}

	if errors.Is(err, persistence.ErrTransactionNotFound) ||
		errors.Is(err, reconciliation.ErrUnknownBiller) {
		return CategoryClientError
	}

	if errors.Is(err, persistence.ErrVersionConflict) {
		return CategoryTransient
	}

	return CategoryInfrastructure
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	switch {
	case isValidationError(err),
		errors.Is(err, reconciliation.ErrUnknownBiller):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIllegalStateTransition),
		errors.Is(err, persistence.ErrVersionConflict),
		errors.Is(err, persistence.ErrIdempotencyMismatch):
		return http.StatusConflict
	case errors.Is(err, persistence.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	return http.StatusInternalServerError
}

// ToErrorCode clear error code for API responses
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	if errors.Is(err, domain.ErrIllegalStateTransition) {
		return domain.ErrCodeIllegalStateTransition
	}
	if errors.Is(err, reconciliation.ErrUnknownBiller) {
		return ErrCodeUnknownBiller
	}
	if errors.Is(err, persistence.ErrTransactionNotFound) {
		return ErrCodeNotFound
	}
	if errors.Is(err, persistence.ErrVersionConflict) {
		return ErrCodeConflict
	}
	if errors.Is(err, persistence.ErrIdempotencyMismatch) {
		return ErrCodeIdempotencyMismatch
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}

	return ErrCodeInternal
}
