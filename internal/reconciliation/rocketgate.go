package reconciliation

import "github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"

type rocketgateRequest struct {
	MerchantInvoiceID  flexString `json:"merchantInvoiceID"`
	MerchantCustomerID flexString `json:"merchantCustomerID"`
	IsMigratedUpload   flexBool   `json:"isMigratedUpload"`
}

type rocketgateResponse struct {
	ReasonCode         flexString `json:"reasonCode"`
	GUIDNo             flexString `json:"guidNo"`
	MerchantInvoiceID  flexString `json:"merchantInvoiceID"`
	MerchantCustomerID flexString `json:"merchantCustomerID"`
	MerchantAccount    flexString `json:"merchantAccount"`
	ApprovedAmount     flexString `json:"approvedAmount"`
	CardHash           flexString `json:"cardHash"`
	CardDescription    flexString `json:"cardDescription"`
	PaymentLinkURL     flexString `json:"PAYMENT_LINK_URL"`
}

type rocketgateDecoder struct{}

func (rocketgateDecoder) DecodeRequest(payload []byte) Request {
	var w rocketgateRequest
	if !decodeInto(payload, &w) {
		return Request{}
	}
	return Request{
		InvoiceID:      w.MerchantInvoiceID.value,
		CustomerID:     w.MerchantCustomerID.value,
		MigratedUpload: bool(w.IsMigratedUpload),
	}
}

func (rocketgateDecoder) DecodeResponse(payload []byte) Response {
	var w rocketgateResponse
	if !decodeInto(payload, &w) {
		return Response{}
	}
	return Response{
		ReasonCode:      w.ReasonCode.value,
		HasReasonCode:   w.ReasonCode.present,
		TransactionID:   w.GUIDNo.value,
		InvoiceID:       w.MerchantInvoiceID.value,
		CustomerID:      w.MerchantCustomerID.value,
		MerchantAccount: w.MerchantAccount.value,
		ApprovedAmount:  w.ApprovedAmount.value,
		CardHash:        w.CardHash.value,
		CardDescription: w.CardDescription.value,
		PaymentLinkURL:  w.PaymentLinkURL.value,
	}
}

func rocketgateProfile() Profile {
	return Profile{
		Biller:         domain.BillerRocketgate,
		ThreeDSCapable: true,
		FreeSaleAmount: DefaultFreeSaleAmount,
		Codes: ReasonCodeTable{
			Approved:             []string{"0"},
			ScaRequired:          []string{"228"},
			ThreeDSAuthRequired:  []string{"202"},
			FailedThreeDS:        []string{"203", "205"},
			ThreeDSTwoInitiation: []string{"225"},
			DeclinedOverLimit:    []string{"105"},
		},
		Decoder: rocketgateDecoder{},
	}
}
