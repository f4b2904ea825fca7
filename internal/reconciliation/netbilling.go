package reconciliation

import "github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"

type netbillingRequest struct {
	InvoiceNumber  flexString `json:"invoice_number"`
	MemberID       flexString `json:"member_id"`
	MigratedUpload flexBool   `json:"migrated_upload"`
}

type netbillingResponse struct {
	StatusCode      flexString `json:"status_code"`
	TransID         flexString `json:"trans_id"`
	InvoiceNumber   flexString `json:"invoice_number"`
	MemberID        flexString `json:"member_id"`
	AccountID       flexString `json:"account_id"`
	SettleAmount    flexString `json:"settle_amount"`
	CardHash        flexString `json:"card_hash"`
	CardDescription flexString `json:"card_description"`
}

type netbillingDecoder struct{}

func (netbillingDecoder) DecodeRequest(payload []byte) Request {
	var w netbillingRequest
	if !decodeInto(payload, &w) {
		return Request{}
	}
	return Request{
		InvoiceID:      w.InvoiceNumber.value,
		CustomerID:     w.MemberID.value,
		MigratedUpload: bool(w.MigratedUpload),
	}
}

func (netbillingDecoder) DecodeResponse(payload []byte) Response {
	var w netbillingResponse
	if !decodeInto(payload, &w) {
		return Response{}
	}
	return Response{
		ReasonCode:      w.StatusCode.value,
		HasReasonCode:   w.StatusCode.present,
		TransactionID:   w.TransID.value,
		InvoiceID:       w.InvoiceNumber.value,
		CustomerID:      w.MemberID.value,
		MerchantAccount: w.AccountID.value,
		ApprovedAmount:  w.SettleAmount.value,
		CardHash:        w.CardHash.value,
		CardDescription: w.CardDescription.value,
	}
}

// netbillingProfile has no 3DS flow, so every pair is its own operation.
func netbillingProfile() Profile {
	return Profile{
		Biller:         domain.BillerNetbilling,
		FreeSaleAmount: DefaultFreeSaleAmount,
		Codes:          ReasonCodeTable{Approved: []string{"1"}},
		Decoder:        netbillingDecoder{},
	}
}
