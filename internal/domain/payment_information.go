package domain

import (
	"regexp"
	"time"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "cc"
	PaymentMethodCardHash   PaymentMethod = "cardHash"
)

var cvvPattern = regexp.MustCompile(`^[0-9]{3,4}$`)

// PaymentInformation is the redacted view of how a transaction is paid. The full card
// number and the CVV are validated on construction and then dropped.
type PaymentInformation struct {
	Method          PaymentMethod `json:"method"`
	First6          string        `json:"first6,omitempty"`
	Last4           string        `json:"last4,omitempty"`
	CardType        CardType      `json:"cardType,omitempty"`
	ExpirationMonth int           `json:"expirationMonth,omitempty"`
	ExpirationYear  int           `json:"expirationYear,omitempty"`
	CardHash        string        `json:"cardHash,omitempty"`
}

func NewCCPaymentInformation(card CreditCardNumber, cvv string, expirationMonth, expirationYear int, now time.Time) (PaymentInformation, error) {
	if !cvvPattern.MatchString(cvv) {
		return PaymentInformation{}, NewInvalidCVVError()
	}
	if err := validateExpiration(expirationMonth, expirationYear, now); err != nil {
		return PaymentInformation{}, err
	}

	return PaymentInformation{
		Method:          PaymentMethodCreditCard,
		First6:          card.First6(),
		Last4:           card.Last4(),
		CardType:        card.Type(),
		ExpirationMonth: expirationMonth,
		ExpirationYear:  expirationYear,
	}, nil
}

// NewCardHashPaymentInformation is used when charging a card the biller already stores.
func NewCardHashPaymentInformation(cardHash string) (PaymentInformation, error) {
	if cardHash == "" {
		return PaymentInformation{}, NewMissingRequiredFieldError("card hash")
	}
	return PaymentInformation{Method: PaymentMethodCardHash, CardHash: cardHash}, nil
}

// validateExpiration accepts cards expiring at the end of the current month.
func validateExpiration(month, year int, now time.Time) error {
	if month < 1 || month > 12 || year < 1000 || year > 9999 {
		return NewInvalidExpirationError(month, year)
	}
	endOfMonth := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.UTC().Before(endOfMonth) {
		return NewInvalidExpirationError(month, year)
	}
	return nil
}
