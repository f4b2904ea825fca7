package biller

import (
	"encoding/json"
	"fmt"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
)

const (
	OperationPurchase     = "purchase"
	OperationAuthorize    = "authorize"
	OperationRebillUpdate = "rebill-update"
)

var rocketgateTransactionTypes = map[string]string{
	OperationPurchase:     "CC_PURCHASE",
	OperationAuthorize:    "CC_AUTH_ONLY",
	OperationRebillUpdate: "REBILL_UPDATE",
}

var netbillingTranTypes = map[string]string{
	OperationPurchase:     "S",
	OperationAuthorize:    "A",
	OperationRebillUpdate: "U",
}

type rocketgatePurchase struct {
	TransactionType    string `json:"transactionType"`
	MerchantID         string `json:"merchantID"`
	MerchantPassword   string `json:"merchantPassword"`
	MerchantInvoiceID  string `json:"merchantInvoiceID"`
	MerchantCustomerID string `json:"merchantCustomerID"`
	MerchantAccount    string `json:"merchantAccount,omitempty"`
	MerchantSiteID     string `json:"merchantSiteID,omitempty"`
	MerchantDescriptor string `json:"merchantDescriptor,omitempty"`
	Amount             string `json:"amount,omitempty"`
	Currency           string `json:"currency,omitempty"`
	RebillFrequency    int    `json:"rebillFrequency,omitempty"`
	RebillStart        int    `json:"rebillStart,omitempty"`
	RebillAmount       string `json:"rebillAmount,omitempty"`
	CardNo             string `json:"cardNo,omitempty"`
	CVV2               string `json:"cvv2,omitempty"`
	ExpireMonth        int    `json:"expireMonth,omitempty"`
	ExpireYear         int    `json:"expireYear,omitempty"`
	CardHash           string `json:"cardHash,omitempty"`
	Use3DSecure        bool   `json:"use3DSecure,omitempty"`
	Use3DSSimplified   bool   `json:"use3DSecureSimplified,omitempty"`
	ReferenceGUID      string `json:"referenceGUID,omitempty"`
	PARES              string `json:"PARES,omitempty"`
}

// rocketgateChallenge is the part of a 3DS challenge response the completion refers to.
type rocketgateChallenge struct {
	GUIDNo string `json:"guidNo"`
}

type netbillingCharge struct {
	TranType         string `json:"tran_type"`
	AccountID        string `json:"account_id"`
	SiteTag          string `json:"site_tag"`
	MerchantPassword string `json:"merchant_password,omitempty"`
	InvoiceNumber    string `json:"invoice_number"`
	MemberID         string `json:"member_id"`
	Amount           string `json:"amount,omitempty"`
	Currency         string `json:"currency,omitempty"`
	RebillFrequency  int    `json:"rebill_frequency,omitempty"`
	InitialDays      int    `json:"initial_days,omitempty"`
	RebillAmount     string `json:"rebill_amount,omitempty"`
	CardNumber       string `json:"card_number,omitempty"`
	CardCVV          string `json:"card_cvv,omitempty"`
	CardExpire       string `json:"card_expire,omitempty"`
	CardHash         string `json:"card_hash,omitempty"`
	BinRouting       string `json:"bin_routing,omitempty"`
	OrigID           string `json:"orig_id,omitempty"`
}

// BillerErrorResponse is the error body billers answer non-2xx requests with.
type BillerErrorResponse struct {
	Err     string `json:"error"`
	Message string `json:"message"`
}

func operationFor(kind domain.TransactionKind) string {
	switch kind {
	case domain.KindAuth:
		return OperationAuthorize
	case domain.KindRebillUpdate:
		return OperationRebillUpdate
	default:
		return OperationPurchase
	}
}

// buildRequest renders cmd into the wire payload of its biller.
func buildRequest(cmd application.BillerCommand) (Request, error) {
	var (
		body any
		err  error
	)
	switch cmd.Settings.Biller {
	case domain.BillerRocketgate:
		body, err = rocketgateRequest(cmd)
	case domain.BillerNetbilling:
		body, err = netbillingRequest(cmd)
	default:
		return Request{}, fmt.Errorf("no wire format for biller %q", cmd.Settings.Biller)
	}
	if err != nil {
		return Request{}, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Request{}, fmt.Errorf("error marshalling json: %w", err)
	}

	return Request{
		Biller:         cmd.Settings.Biller,
		Operation:      operationFor(cmd.Kind),
		IdempotencyKey: cmd.TransactionID,
		Body:           payload,
	}, nil
}

func rocketgateRequest(cmd application.BillerCommand) (rocketgatePurchase, error) {
	s := cmd.Settings.Rocketgate
	if s == nil {
		return rocketgatePurchase{}, domain.NewMissingMerchantInformationError(domain.BillerRocketgate, "settings")
	}

	customerID := s.MerchantCustomerID
	if customerID == "" {
		customerID = cmd.TransactionID
	}
	invoiceID := s.MerchantInvoiceID
	if invoiceID == "" {
		invoiceID = cmd.TransactionID
	}

	req := rocketgatePurchase{
		TransactionType:    rocketgateTransactionTypes[operationFor(cmd.Kind)],
		MerchantID:         s.MerchantID,
		MerchantPassword:   s.MerchantPassword,
		MerchantInvoiceID:  invoiceID,
		MerchantCustomerID: customerID,
		MerchantAccount:    s.MerchantAccount,
		MerchantSiteID:     s.MerchantSiteID,
		MerchantDescriptor: s.MerchantDescriptor,
		CardHash:           cmd.CardHash,
		Use3DSecure:        cmd.ThreeDS,
		Use3DSSimplified:   cmd.ThreeDS && s.Simplified3DS,
		ReferenceGUID:      cmd.PreviousTransactionID,
	}

	if c := cmd.Charge; c != nil {
		req.Amount = c.Amount.String()
		req.Currency = c.Currency.String()
		if c.Rebill != nil {
			req.RebillFrequency = c.Rebill.Frequency
			req.RebillStart = c.Rebill.Start
			req.RebillAmount = c.Rebill.Amount.String()
		}
	}
	if done := cmd.Completion; done != nil {
		var challenge rocketgateChallenge
		if err := json.Unmarshal(done.Challenge, &challenge); err != nil || challenge.GUIDNo == "" {
			return rocketgatePurchase{}, domain.NewMissingRequiredFieldError("guidNo of the 3DS challenge")
		}
		req.Use3DSecure = true
		req.PARES = done.PaRes
		req.ReferenceGUID = challenge.GUIDNo
	}
	if card := cmd.Card; card != nil {
		req.CardNo = card.Number
		req.CVV2 = card.CVV
		req.ExpireMonth = card.ExpirationMonth
		req.ExpireYear = card.ExpirationYear
	}
	return req, nil
}

func netbillingRequest(cmd application.BillerCommand) (netbillingCharge, error) {
	s := cmd.Settings.Netbilling
	if s == nil {
		return netbillingCharge{}, domain.NewMissingMerchantInformationError(domain.BillerNetbilling, "settings")
	}
	if cmd.Completion != nil {
		return netbillingCharge{}, fmt.Errorf("no 3DS completion wire format for biller %q", domain.BillerNetbilling)
	}

	req := netbillingCharge{
		TranType:         netbillingTranTypes[operationFor(cmd.Kind)],
		AccountID:        s.AccountID,
		SiteTag:          s.SiteTag,
		MerchantPassword: s.MerchantPassword,
		InvoiceNumber:    cmd.TransactionID,
		MemberID:         cmd.TransactionID,
		CardHash:         cmd.CardHash,
		BinRouting:       s.BinRouting,
		InitialDays:      s.InitialDays,
		OrigID:           cmd.PreviousTransactionID,
	}

	if c := cmd.Charge; c != nil {
		req.Amount = c.Amount.String()
		req.Currency = c.Currency.String()
		if c.Rebill != nil {
			req.RebillFrequency = c.Rebill.Frequency
			req.RebillAmount = c.Rebill.Amount.String()
			if req.InitialDays == 0 {
				req.InitialDays = c.Rebill.Start
			}
		}
	}
	if card := cmd.Card; card != nil {
		req.CardNumber = card.Number
		req.CardCVV = card.CVV
		req.CardExpire = fmt.Sprintf("%02d%02d", card.ExpirationMonth, card.ExpirationYear%100)
	}
	return req, nil
}
