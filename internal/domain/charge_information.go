package domain

// TaxAmount is the tax breakdown of a single amount. It is only checked for
// consistency; tax computation belongs to the caller.
type TaxAmount struct {
	BeforeTaxes Amount `json:"beforeTaxes"`
	Taxes       Amount `json:"taxes"`
	AfterTaxes  Amount `json:"afterTaxes"`
}

func NewTaxAmount(beforeTaxes, taxes, afterTaxes string) (TaxAmount, error) {
	before, err := NewAmountFromString(beforeTaxes)
	if err != nil {
		return TaxAmount{}, err
	}
	tax, err := NewAmountFromString(taxes)
	if err != nil {
		return TaxAmount{}, err
	}
	after, err := NewAmountFromString(afterTaxes)
	if err != nil {
		return TaxAmount{}, err
	}
	return TaxAmount{BeforeTaxes: before, Taxes: tax, AfterTaxes: after}, nil
}

// validate checks that the breakdown adds up and lands on amount.
func (t TaxAmount) validate(amount Amount) error {
	if !t.BeforeTaxes.Add(t.Taxes).Equal(t.AfterTaxes) {
		return NewInvalidTaxBreakdownError(t.BeforeTaxes, t.Taxes, t.AfterTaxes)
	}
	if !t.AfterTaxes.Equal(amount) {
		return NewAfterTaxDoesNotMatchWithAmountError(t.AfterTaxes, amount)
	}
	return nil
}

func (t TaxAmount) Equal(other TaxAmount) bool {
	return t.BeforeTaxes.Equal(other.BeforeTaxes) &&
		t.Taxes.Equal(other.Taxes) &&
		t.AfterTaxes.Equal(other.AfterTaxes)
}

// TaxInformation accompanies a charge when the caller computed taxes upstream.
type TaxInformation struct {
	Initial       *TaxAmount `json:"initialAmount,omitempty"`
	Rebill        *TaxAmount `json:"rebillAmount,omitempty"`
	Name          string     `json:"taxName,omitempty"`
	Rate          string     `json:"taxRate,omitempty"`
	ApplicationID string     `json:"taxApplicationId,omitempty"`
	Type          string     `json:"taxType,omitempty"`
}

func (t *TaxInformation) Equal(other *TaxInformation) bool {
	if t == nil || other == nil {
		return t == other
	}
	return equalTaxAmounts(t.Initial, other.Initial) &&
		equalTaxAmounts(t.Rebill, other.Rebill) &&
		t.Name == other.Name &&
		t.Rate == other.Rate &&
		t.ApplicationID == other.ApplicationID &&
		t.Type == other.Type
}

func (t *TaxInformation) clone() *TaxInformation {
	if t == nil {
		return nil
	}
	out := *t
	if t.Initial != nil {
		initial := *t.Initial
		out.Initial = &initial
	}
	if t.Rebill != nil {
		rebill := *t.Rebill
		out.Rebill = &rebill
	}
	return &out
}

func equalTaxAmounts(a, b *TaxAmount) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// ChargeInformation holds the money terms of a transaction.
type ChargeInformation struct {
	Currency Currency        `json:"currency"`
	Amount   Amount          `json:"amount"`
	Rebill   *Rebill         `json:"rebill,omitempty"`
	Tax      *TaxInformation `json:"tax,omitempty"`
}

// CreateSingleCharge builds charge information without a rebill. tax may be nil.
func CreateSingleCharge(currency Currency, amount Amount, tax *TaxInformation) (ChargeInformation, error) {
	info := ChargeInformation{Currency: currency, Amount: amount, Tax: tax}
	if err := info.validate(); err != nil {
		return ChargeInformation{}, err
	}
	return info, nil
}

// CreateWithRebill builds charge information with a rebill. tax may be nil.
func CreateWithRebill(currency Currency, amount Amount, rebill Rebill, tax *TaxInformation) (ChargeInformation, error) {
	info := ChargeInformation{Currency: currency, Amount: amount, Rebill: &rebill, Tax: tax}
	if err := info.validate(); err != nil {
		return ChargeInformation{}, err
	}
	return info, nil
}

// RebillTerms is the upstream request shape of a rebill. Amount is a decimal string.
type RebillTerms struct {
	Amount    string
	Frequency int
	Start     int
}

// TaxTerms is the upstream request shape of a tax breakdown, amounts as decimal strings.
type TaxTerms struct {
	InitialBeforeTaxes string
	InitialTaxes       string
	InitialAfterTaxes  string
	RebillBeforeTaxes  string
	RebillTaxes        string
	RebillAfterTaxes   string
	Name               string
	Rate               string
	ApplicationID      string
	Type               string
}

// Charge is the upstream purchase shape a transaction is created from. Amounts are
// decimal strings so "10.20" reaches the biller as written.
type Charge struct {
	Amount   string
	Currency string
	Rebill   *RebillTerms
	Tax      *TaxTerms
}

// CreateChargeInformationFromCharge adapts an upstream Charge.
func CreateChargeInformationFromCharge(charge Charge) (ChargeInformation, error) {
	tax, err := taxInformationFromTerms(charge.Tax)
	if err != nil {
		return ChargeInformation{}, err
	}
	return createFromPrimitives(charge.Amount, charge.Currency, charge.Rebill, tax)
}

// CreateFromCommand adapts the primitive fields of a charge command.
func CreateFromCommand(amount string, currency string, rebill *RebillTerms) (ChargeInformation, error) {
	return createFromPrimitives(amount, currency, rebill, nil)
}

func createFromPrimitives(amount string, currency string, rebill *RebillTerms, tax *TaxInformation) (ChargeInformation, error) {
	cur, err := NewCurrency(currency)
	if err != nil {
		return ChargeInformation{}, err
	}
	amt, err := NewAmountFromString(amount)
	if err != nil {
		return ChargeInformation{}, err
	}
	if rebill == nil {
		return CreateSingleCharge(cur, amt, tax)
	}

	rebillAmount, err := NewAmountFromString(rebill.Amount)
	if err != nil {
		return ChargeInformation{}, err
	}
	r, err := NewRebill(rebill.Frequency, rebill.Start, rebillAmount)
	if err != nil {
		return ChargeInformation{}, err
	}
	return CreateWithRebill(cur, amt, r, tax)
}

func taxInformationFromTerms(terms *TaxTerms) (*TaxInformation, error) {
	if terms == nil {
		return nil, nil
	}

	info := &TaxInformation{
		Name:          terms.Name,
		Rate:          terms.Rate,
		ApplicationID: terms.ApplicationID,
		Type:          terms.Type,
	}

	if terms.InitialAfterTaxes != "" {
		initial, err := NewTaxAmount(terms.InitialBeforeTaxes, terms.InitialTaxes, terms.InitialAfterTaxes)
		if err != nil {
			return nil, err
		}
		info.Initial = &initial
	}
	if terms.RebillAfterTaxes != "" {
		rebill, err := NewTaxAmount(terms.RebillBeforeTaxes, terms.RebillTaxes, terms.RebillAfterTaxes)
		if err != nil {
			return nil, err
		}
		info.Rebill = &rebill
	}
	return info, nil
}

func (c ChargeInformation) validate() error {
	if c.Tax == nil {
		return nil
	}
	if c.Tax.Initial != nil {
		if err := c.Tax.Initial.validate(c.Amount); err != nil {
			return err
		}
	}
	if c.Tax.Rebill != nil {
		// a rebill breakdown without a rebill has no amount to land on
		rebillAmount := ZeroAmount()
		if c.Rebill != nil {
			rebillAmount = c.Rebill.Amount
		}
		if err := c.Tax.Rebill.validate(rebillAmount); err != nil {
			return err
		}
	}
	return nil
}

// clone returns a copy that shares no pointers with c.
func (c *ChargeInformation) clone() *ChargeInformation {
	if c == nil {
		return nil
	}
	out := *c
	if c.Rebill != nil {
		rebill := *c.Rebill
		out.Rebill = &rebill
	}
	out.Tax = c.Tax.clone()
	return &out
}

func (c ChargeInformation) HasRebill() bool {
	return c.Rebill != nil
}

func (c ChargeInformation) Equal(other ChargeInformation) bool {
	if c.Currency != other.Currency || !c.Amount.Equal(other.Amount) {
		return false
	}
	if (c.Rebill == nil) != (other.Rebill == nil) {
		return false
	}
	if c.Rebill != nil && !c.Rebill.Equal(*other.Rebill) {
		return false
	}
	return c.Tax.Equal(other.Tax)
}
