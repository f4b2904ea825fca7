package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
)

func TestChargeInformation_TaxConsistency(t *testing.T) {
	tests := []struct {
		name       string
		charge     domain.Charge
		wantErr    error
		wantRebill bool
	}{
		{
			name: "initial after taxes matches amount",
			charge: domain.Charge{
				Amount:   "10.2",
				Currency: "USD",
				Tax:      &domain.TaxTerms{InitialBeforeTaxes: "10", InitialTaxes: "0.2", InitialAfterTaxes: "10.2"},
			},
		},
		{
			name: "initial after taxes differs from amount",
			charge: domain.Charge{
				Amount:   "10.2",
				Currency: "USD",
				Tax:      &domain.TaxTerms{InitialBeforeTaxes: "10", InitialTaxes: "0.99", InitialAfterTaxes: "10.99"},
			},
			wantErr: domain.ErrAfterTaxDoesNotMatchWithAmount,
		},
		{
			name: "initial breakdown does not add up",
			charge: domain.Charge{
				Amount:   "10.2",
				Currency: "USD",
				Tax:      &domain.TaxTerms{InitialBeforeTaxes: "10", InitialTaxes: "0.5", InitialAfterTaxes: "10.2"},
			},
			wantErr: domain.ErrInvalidTaxBreakdown,
		},
		{
			name: "rebill after taxes matches rebill amount",
			charge: domain.Charge{
				Amount:   "1",
				Currency: "EUR",
				Rebill:   &domain.RebillTerms{Amount: "10.2", Frequency: 30},
				Tax:      &domain.TaxTerms{RebillBeforeTaxes: "10", RebillTaxes: "0.2", RebillAfterTaxes: "10.2"},
			},
			wantRebill: true,
		},
		{
			name: "rebill after taxes differs from rebill amount",
			charge: domain.Charge{
				Amount:   "1",
				Currency: "EUR",
				Rebill:   &domain.RebillTerms{Amount: "10.2", Frequency: 30},
				Tax:      &domain.TaxTerms{RebillBeforeTaxes: "10", RebillTaxes: "0.99", RebillAfterTaxes: "10.99"},
			},
			wantErr: domain.ErrAfterTaxDoesNotMatchWithAmount,
		},
		{
			name: "initial and rebill checked independently",
			charge: domain.Charge{
				Amount:   "10.2",
				Currency: "EUR",
				Rebill:   &domain.RebillTerms{Amount: "5", Frequency: 30},
				Tax: &domain.TaxTerms{
					InitialBeforeTaxes: "10", InitialTaxes: "0.2", InitialAfterTaxes: "10.2",
					RebillBeforeTaxes: "4", RebillTaxes: "1", RebillAfterTaxes: "5.00",
				},
			},
			wantRebill: true,
		},
		{
			name: "rebill breakdown without rebill",
			charge: domain.Charge{
				Amount:   "10.2",
				Currency: "USD",
				Tax:      &domain.TaxTerms{RebillBeforeTaxes: "10", RebillTaxes: "0.99", RebillAfterTaxes: "10.99"},
			},
			wantErr: domain.ErrAfterTaxDoesNotMatchWithAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := domain.CreateChargeInformationFromCharge(tt.charge)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRebill, info.HasRebill())
		})
	}
}

func TestCreateSingleCharge(t *testing.T) {
	usd, _ := domain.NewCurrency("USD")
	amount, _ := domain.NewAmountFromString("10.2")

	t.Run("without tax", func(t *testing.T) {
		info, err := domain.CreateSingleCharge(usd, amount, nil)

		require.NoError(t, err)
		assert.False(t, info.HasRebill())
		assert.True(t, info.Amount.Equal(amount))
	})

	t.Run("with mismatching tax", func(t *testing.T) {
		tax, err := domain.NewTaxAmount("10", "0.99", "10.99")
		require.NoError(t, err)

		_, err = domain.CreateSingleCharge(usd, amount, &domain.TaxInformation{Initial: &tax})

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeAfterTaxMismatch))
	})
}

func TestCreateWithRebill(t *testing.T) {
	usd, _ := domain.NewCurrency("USD")
	amount, _ := domain.NewAmountFromString("1.00")
	rebillAmount, _ := domain.NewAmountFromString("10.2")
	rebill, err := domain.NewRebill(30, 3, rebillAmount)
	require.NoError(t, err)

	good, _ := domain.NewTaxAmount("10", "0.2", "10.2")
	bad, _ := domain.NewTaxAmount("10", "0.99", "10.99")

	_, err = domain.CreateWithRebill(usd, amount, rebill, &domain.TaxInformation{Rebill: &good})
	assert.NoError(t, err)

	_, err = domain.CreateWithRebill(usd, amount, rebill, &domain.TaxInformation{Rebill: &bad})
	assert.ErrorIs(t, err, domain.ErrAfterTaxDoesNotMatchWithAmount)
}

func TestCreateFromCommand(t *testing.T) {
	t.Run("rejects unsupported currency", func(t *testing.T) {
		_, err := domain.CreateFromCommand("10", "ABC", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidCurrency)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := domain.CreateFromCommand("-1", "USD", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("rejects invalid rebill", func(t *testing.T) {
		_, err := domain.CreateFromCommand("10", "USD", &domain.RebillTerms{Amount: "5", Frequency: 0})
		assert.ErrorIs(t, err, domain.ErrInvalidRebill)
	})

	t.Run("rejects non-numeric amount", func(t *testing.T) {
		_, err := domain.CreateFromCommand("10,20", "USD", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("keeps decimal amounts exact", func(t *testing.T) {
		info, err := domain.CreateFromCommand("90071992547409.93", "USD", &domain.RebillTerms{Amount: "0.30", Frequency: 30, Start: 30})
		require.NoError(t, err)

		assert.Equal(t, "90071992547409.93", info.Amount.String())
		assert.True(t, info.Amount.Decimal().Equal(decimal.RequireFromString("90071992547409.93")))
		assert.Equal(t, "0.30", info.Rebill.Amount.String())
	})

	t.Run("equality by value", func(t *testing.T) {
		a, err := domain.CreateFromCommand("10.2", "USD", &domain.RebillTerms{Amount: "5", Frequency: 30, Start: 7})
		require.NoError(t, err)
		b, err := domain.CreateFromCommand("10.20", "USD", &domain.RebillTerms{Amount: "5.0", Frequency: 30, Start: 7})
		require.NoError(t, err)
		c, err := domain.CreateFromCommand("10.2", "USD", nil)
		require.NoError(t, err)

		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(c))
	})
}
