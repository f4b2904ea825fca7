package domain

import (
	"strconv"
	"strings"
)

// CardType is the card brand detected from the BIN.
type CardType string

const (
	CardTypeVisa        CardType = "visa"
	CardTypeMasterCard  CardType = "mastercard"
	CardTypeAmex        CardType = "amex"
	CardTypeUnionPayOld CardType = "unionpay-old"
	CardTypeUnionPayNew CardType = "unionpay-new"
	CardTypeMir         CardType = "mir"
)

type binRange struct {
	cardType CardType
	// prefix length and inclusive bounds, e.g. {4, 2200, 2204}
	prefixLen int
	low, high int
	lengths   []int
}

// Order matters: the first matching range wins.
var binRanges = []binRange{
	{CardTypeMir, 4, 2200, 2204, []int{16, 17, 18, 19}},
	{CardTypeVisa, 1, 4, 4, []int{13, 16, 19}},
	{CardTypeMasterCard, 2, 51, 55, []int{16}},
	{CardTypeMasterCard, 4, 2221, 2720, []int{16}},
	{CardTypeAmex, 2, 34, 34, []int{15}},
	{CardTypeAmex, 2, 37, 37, []int{15}},
	{CardTypeUnionPayNew, 4, 8100, 8171, []int{16, 17, 18, 19}},
	{CardTypeUnionPayOld, 2, 62, 62, []int{16, 17, 18, 19}},
}

// CreditCardNumber is a normalized, Luhn-valid card number of a supported brand.
type CreditCardNumber struct {
	number   string
	cardType CardType
}

// NewCreditCardNumber strips spaces and dashes, then validates digits, Luhn checksum and brand.
func NewCreditCardNumber(raw string) (CreditCardNumber, error) {
	number := normalizeCardNumber(raw)
	if number == "" || !isDigits(number) || !luhnValid(number) {
		return CreditCardNumber{}, NewInvalidCreditCardNumberError()
	}

	cardType, ok := detectCardType(number)
	if !ok {
		return CreditCardNumber{}, NewUnsupportedCardTypeError()
	}

	return CreditCardNumber{number: number, cardType: cardType}, nil
}

func (c CreditCardNumber) Number() string {
	return c.number
}

func (c CreditCardNumber) Type() CardType {
	return c.cardType
}

func (c CreditCardNumber) First6() string {
	return c.number[:6]
}

func (c CreditCardNumber) Last4() string {
	return c.number[len(c.number)-4:]
}

func (c CreditCardNumber) Equal(other CreditCardNumber) bool {
	return c.number == other.number
}

// String never exposes the full number.
func (c CreditCardNumber) String() string {
	return c.First6() + strings.Repeat("*", len(c.number)-10) + c.Last4()
}

func normalizeCardNumber(raw string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func detectCardType(number string) (CardType, bool) {
	for _, r := range binRanges {
		if len(number) < r.prefixLen {
			continue
		}
		prefix, err := strconv.Atoi(number[:r.prefixLen])
		if err != nil {
			return "", false
		}
		if prefix < r.low || prefix > r.high {
			continue
		}
		for _, l := range r.lengths {
			if len(number) == l {
				return r.cardType, true
			}
		}
	}
	return "", false
}
