package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business rule violation
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Domain validation errors
const (
	ErrCodeInvalidAmount                   = "INVALID_AMOUNT"
	ErrCodeInvalidCurrency                 = "INVALID_CURRENCY"
	ErrCodeInvalidRebill                   = "INVALID_REBILL"
	ErrCodeInvalidCreditCardNumber         = "INVALID_CREDIT_CARD_NUMBER"
	ErrCodeUnsupportedCardType             = "UNSUPPORTED_CARD_TYPE"
	ErrCodeInvalidCVV                      = "INVALID_CVV"
	ErrCodeInvalidExpiration               = "INVALID_EXPIRATION"
	ErrCodeInvalidBillerInteractionType    = "INVALID_BILLER_INTERACTION_TYPE"
	ErrCodeInvalidBillerInteractionPayload = "INVALID_BILLER_INTERACTION_PAYLOAD"
	ErrCodeInvalidTaxBreakdown             = "INVALID_TAX_BREAKDOWN"
	ErrCodeAfterTaxMismatch                = "AFTER_TAX_DOES_NOT_MATCH_WITH_AMOUNT"
	ErrCodeMissingMerchantInformation      = "MISSING_MERCHANT_INFORMATION"
	ErrCodeMissingRequiredField            = "MISSING_REQUIRED_FIELD"
	ErrCodeIllegalStateTransition          = "ILLEGAL_STATE_TRANSITION"
	ErrCodeUnknownStatus                   = "UNKNOWN_STATUS"
	ErrCodeInvalidEvent                    = "INVALID_EVENT"
)

var (
	ErrInvalidAmount                   = errors.New("invalid amount")
	ErrInvalidCurrency                 = errors.New("invalid currency")
	ErrInvalidRebill                   = errors.New("invalid rebill")
	ErrInvalidCreditCardNumber         = errors.New("invalid credit card number")
	ErrUnsupportedCardType             = errors.New("unsupported card type")
	ErrInvalidCVV                      = errors.New("invalid cvv")
	ErrInvalidExpiration               = errors.New("invalid expiration date")
	ErrInvalidBillerInteractionType    = errors.New("invalid biller interaction type")
	ErrInvalidBillerInteractionPayload = errors.New("invalid biller interaction payload")
	ErrInvalidTaxBreakdown             = errors.New("invalid tax breakdown")
	ErrAfterTaxDoesNotMatchWithAmount  = errors.New("after tax amount does not match with amount")
	ErrMissingMerchantInformation      = errors.New("missing merchant information")
	ErrMissingRequiredField            = errors.New("missing required field")
	ErrIllegalStateTransition          = errors.New("illegal state transition")
	ErrUnknownStatus                   = errors.New("unknown status")
	ErrInvalidEvent                    = errors.New("invalid event")
)

// IllegalStateTransitionError is returned by Status mutators. The status it was
// raised from is left untouched.
type IllegalStateTransitionError struct {
	From      Status
	Attempted Status
}

func (e *IllegalStateTransitionError) Error() string {
	return fmt.Sprintf("illegal state transition from %s to %s", e.From, e.Attempted)
}

func (e *IllegalStateTransitionError) Unwrap() error {
	return ErrIllegalStateTransition
}

func NewIllegalStateTransitionError(from, attempted Status) *IllegalStateTransitionError {
	return &IllegalStateTransitionError{From: from, Attempted: attempted}
}

func NewInvalidAmountError(value string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("amount %q must be a non-negative decimal", value),
		Err:     ErrInvalidAmount,
	}
}

func NewInvalidCurrencyError(value string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidCurrency,
		Message: fmt.Sprintf("currency %q is not supported", value),
		Err:     ErrInvalidCurrency,
	}
}

func NewInvalidRebillError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidRebill,
		Message: reason,
		Err:     ErrInvalidRebill,
	}
}

func NewInvalidCreditCardNumberError() *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidCreditCardNumber,
		Message: "credit card number failed validation",
		Err:     ErrInvalidCreditCardNumber,
	}
}

func NewUnsupportedCardTypeError() *DomainError {
	return &DomainError{
		Code:    ErrCodeUnsupportedCardType,
		Message: "credit card brand is not supported",
		Err:     ErrUnsupportedCardType,
	}
}

func NewInvalidCVVError() *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidCVV,
		Message: "cvv must be 3 or 4 digits",
		Err:     ErrInvalidCVV,
	}
}

func NewInvalidExpirationError(month, year int) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidExpiration,
		Message: fmt.Sprintf("expiration %02d/%d is invalid or in the past", month, year),
		Err:     ErrInvalidExpiration,
	}
}

func NewInvalidBillerInteractionTypeError(value string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidBillerInteractionType,
		Message: fmt.Sprintf("biller interaction type %q must be request or response", value),
		Err:     ErrInvalidBillerInteractionType,
	}
}

func NewInvalidBillerInteractionPayloadError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidBillerInteractionPayload,
		Message: "biller interaction payload is not valid JSON",
		Err:     errors.Join(ErrInvalidBillerInteractionPayload, err),
	}
}

func NewInvalidTaxBreakdownError(before, taxes, after Amount) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTaxBreakdown,
		Message: fmt.Sprintf("before taxes %s plus taxes %s does not equal after taxes %s", before, taxes, after),
		Err:     ErrInvalidTaxBreakdown,
	}
}

func NewAfterTaxDoesNotMatchWithAmountError(afterTaxes, amount Amount) *DomainError {
	return &DomainError{
		Code:    ErrCodeAfterTaxMismatch,
		Message: fmt.Sprintf("after taxes %s does not match amount %s", afterTaxes, amount),
		Err:     ErrAfterTaxDoesNotMatchWithAmount,
	}
}

func NewMissingMerchantInformationError(biller, field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingMerchantInformation,
		Message: fmt.Sprintf("%s biller settings: %s is required", biller, field),
		Err:     ErrMissingMerchantInformation,
	}
}

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
		Err:     ErrMissingRequiredField,
	}
}

func NewUnknownStatusError(name string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnknownStatus,
		Message: fmt.Sprintf("unknown status %q", name),
		Err:     ErrUnknownStatus,
	}
}

func NewInvalidEventError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidEvent,
		Message: reason,
		Err:     ErrInvalidEvent,
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	var transitionErr *IllegalStateTransitionError
	if errors.As(err, &transitionErr) {
		return code == ErrCodeIllegalStateTransition
	}
	return false
}
