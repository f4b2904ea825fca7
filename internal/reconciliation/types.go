// Package reconciliation rebuilds the operations a biller actually performed from the
// recorded request/response history of a transaction.
package reconciliation

type TransactionType string

const (
	TypeSale       TransactionType = "sale"
	TypeAuth       TransactionType = "auth"
	TypeThreeDS    TransactionType = "3ds"
	TypeCardUpload TransactionType = "cardUpload"
)

// BillerTransaction is one discrete operation performed by the biller.
type BillerTransaction struct {
	InvoiceID           string          `json:"invoiceId" yaml:"invoiceId"`
	CustomerID          string          `json:"customerId" yaml:"customerId"`
	BillerTransactionID string          `json:"billerTransactionId" yaml:"billerTransactionId"`
	Type                TransactionType `json:"type" yaml:"type"`
}

// OperationReference holds what a follow-up call (rebill update or cancel) needs.
// Every field is always serialized, empty when the biller did not return it.
type OperationReference struct {
	ReferenceGUID      string `json:"referenceGuid" yaml:"referenceGuid"`
	MerchantAccount    string `json:"merchantAccount" yaml:"merchantAccount"`
	MerchantInvoiceID  string `json:"merchantInvoiceId" yaml:"merchantInvoiceId"`
	MerchantCustomerID string `json:"merchantCustomerId" yaml:"merchantCustomerId"`
}

// PaymentArtifact is extracted from the last response of a history.
type PaymentArtifact struct {
	CardHash        string `json:"cardHash" yaml:"cardHash"`
	CardDescription string `json:"cardDescription" yaml:"cardDescription"`
	// SubsequentOperationFields is keyed by biller name.
	SubsequentOperationFields map[string]OperationReference `json:"subsequentOperationFields" yaml:"subsequentOperationFields"`
}

// Result is the outcome of reconciling one history. Artifact is nil for an empty history.
type Result struct {
	Transactions []BillerTransaction `json:"billerTransactions" yaml:"billerTransactions"`
	Artifact     *PaymentArtifact    `json:"paymentArtifact" yaml:"paymentArtifact"`
}

// Request is the part of a biller request the reconciliation reads.
type Request struct {
	InvoiceID      string
	CustomerID     string
	MigratedUpload bool
}

// Response is the part of a biller response the reconciliation reads.
type Response struct {
	// ReasonCode is empty when HasReasonCode is false.
	ReasonCode      string
	HasReasonCode   bool
	TransactionID   string
	InvoiceID       string
	CustomerID      string
	MerchantAccount string
	ApprovedAmount  string
	CardHash        string
	CardDescription string
	PaymentLinkURL  string
}

// Decoder turns raw payloads of one biller into typed values. Decoding never fails:
// fields that are missing or malformed come back as zero values.
type Decoder interface {
	DecodeRequest(payload []byte) Request
	DecodeResponse(payload []byte) Response
}
