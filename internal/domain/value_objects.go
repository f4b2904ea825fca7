package domain

import (
	"encoding/json"
	"regexp"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative decimal money value.
type Amount struct {
	value decimal.Decimal
}

func NewAmount(value decimal.Decimal) (Amount, error) {
	if value.IsNegative() {
		return Amount{}, NewInvalidAmountError(value.String())
	}
	return Amount{value: value}, nil
}

func NewAmountFromString(value string) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, NewInvalidAmountError(value)
	}
	return NewAmount(d)
}

// ZeroAmount is the empty amount carried by auth transactions.
func ZeroAmount() Amount {
	return Amount{value: decimal.Zero}
}

func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

func (a Amount) Add(other Amount) Amount {
	return Amount{value: a.value.Add(other.value)}
}

// Equal compares numerically, so 10.2 equals 10.20.
func (a Amount) Equal(other Amount) bool {
	return a.value.Equal(other.value)
}

func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// String renders the amount with two decimal places.
func (a Amount) String() string {
	return a.value.StringFixed(2)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewInvalidAmountError(string(data))
	}
	parsed, err := NewAmountFromString(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

var supportedCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "CAD": {}, "AUD": {}, "JPY": {},
	"CHF": {}, "SEK": {}, "NOK": {}, "DKK": {}, "NZD": {}, "BRL": {},
	"MXN": {}, "PLN": {}, "CZK": {}, "HUF": {}, "RUB": {}, "CNY": {},
}

// Currency is an ISO 4217 code from the supported set.
type Currency string

func NewCurrency(code string) (Currency, error) {
	if !currencyPattern.MatchString(code) {
		return "", NewInvalidCurrencyError(code)
	}
	if _, ok := supportedCurrencies[code]; !ok {
		return "", NewInvalidCurrencyError(code)
	}
	return Currency(code), nil
}

func (c Currency) String() string {
	return string(c)
}

// Rebill describes the recurring charge scheduled after an initial charge.
type Rebill struct {
	Frequency int    `json:"frequency"`
	Start     int    `json:"start"`
	Amount    Amount `json:"amount"`
}

// NewRebill validates frequency (days between rebills) and start (days until the first rebill).
func NewRebill(frequency, start int, amount Amount) (Rebill, error) {
	if frequency < 1 {
		return Rebill{}, NewInvalidRebillError("rebill frequency must be at least one day")
	}
	if start < 0 {
		return Rebill{}, NewInvalidRebillError("rebill start cannot be negative")
	}
	return Rebill{Frequency: frequency, Start: start, Amount: amount}, nil
}

func (r Rebill) Equal(other Rebill) bool {
	return r.Frequency == other.Frequency && r.Start == other.Start && r.Amount.Equal(other.Amount)
}
