package domain

import (
	"errors"

	"github.com/go-playground/validator"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/obfuscation"
)

const (
	BillerRocketgate = "rocketgate"
	BillerNetbilling = "netbilling"
)

var settingsValidator = validator.New()

type RocketgateSettings struct {
	MerchantID         string `json:"merchantId" validate:"required"`
	MerchantPassword   string `json:"merchantPassword" validate:"required"`
	MerchantCustomerID string `json:"merchantCustomerId,omitempty"`
	MerchantInvoiceID  string `json:"merchantInvoiceId,omitempty"`
	MerchantAccount    string `json:"merchantAccount,omitempty"`
	MerchantSiteID     string `json:"merchantSiteId,omitempty"`
	MerchantDescriptor string `json:"merchantDescriptor,omitempty"`
	SharedSecret       string `json:"sharedSecret,omitempty"`
	Simplified3DS      bool   `json:"simplified3DS,omitempty"`
}

type NetbillingSettings struct {
	AccountID        string `json:"accountId" validate:"required"`
	SiteTag          string `json:"siteTag" validate:"required"`
	MerchantPassword string `json:"merchantPassword,omitempty"`
	BinRouting       string `json:"binRouting,omitempty"`
	InitialDays      int    `json:"initialDays,omitempty"`
}

// BillerSettings carries the merchant configuration a transaction was sent with.
// Exactly one of the per-biller blocks is set.
type BillerSettings struct {
	Biller     string              `json:"biller"`
	Rocketgate *RocketgateSettings `json:"rocketgate,omitempty"`
	Netbilling *NetbillingSettings `json:"netbilling,omitempty"`
}

func NewRocketgateBillerSettings(s RocketgateSettings) (BillerSettings, error) {
	if err := validateMerchantInformation(BillerRocketgate, s); err != nil {
		return BillerSettings{}, err
	}
	return BillerSettings{Biller: BillerRocketgate, Rocketgate: &s}, nil
}

func NewNetbillingBillerSettings(s NetbillingSettings) (BillerSettings, error) {
	if err := validateMerchantInformation(BillerNetbilling, s); err != nil {
		return BillerSettings{}, err
	}
	return BillerSettings{Biller: BillerNetbilling, Netbilling: &s}, nil
}

func validateMerchantInformation(biller string, s any) error {
	err := settingsValidator.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return NewMissingMerchantInformationError(biller, fieldErrs[0].Field())
	}
	return NewMissingMerchantInformationError(biller, "settings")
}

// Redacted returns a copy with secrets masked.
func (b BillerSettings) Redacted() BillerSettings {
	out := BillerSettings{Biller: b.Biller}
	if b.Rocketgate != nil {
		rg := *b.Rocketgate
		rg.MerchantPassword = mask(rg.MerchantPassword)
		rg.SharedSecret = mask(rg.SharedSecret)
		out.Rocketgate = &rg
	}
	if b.Netbilling != nil {
		nb := *b.Netbilling
		nb.MerchantPassword = mask(nb.MerchantPassword)
		out.Netbilling = &nb
	}
	return out
}

// LogFields flattens the merchant settings under their JSON names. Secrets are
// included as is; callers redact before logging.
func (b BillerSettings) LogFields() map[string]string {
	fields := map[string]string{"biller": b.Biller}
	if rg := b.Rocketgate; rg != nil {
		fields["merchantId"] = rg.MerchantID
		fields["merchantPassword"] = rg.MerchantPassword
		fields["merchantAccount"] = rg.MerchantAccount
		fields["merchantSiteId"] = rg.MerchantSiteID
		fields["sharedSecret"] = rg.SharedSecret
	}
	if nb := b.Netbilling; nb != nil {
		fields["accountId"] = nb.AccountID
		fields["siteTag"] = nb.SiteTag
		fields["merchantPassword"] = nb.MerchantPassword
		fields["binRouting"] = nb.BinRouting
	}
	return fields
}

func (b BillerSettings) clone() BillerSettings {
	out := BillerSettings{Biller: b.Biller}
	if b.Rocketgate != nil {
		rg := *b.Rocketgate
		out.Rocketgate = &rg
	}
	if b.Netbilling != nil {
		nb := *b.Netbilling
		out.Netbilling = &nb
	}
	return out
}

func mask(value string) string {
	if value == "" {
		return ""
	}
	return obfuscation.Mask
}
