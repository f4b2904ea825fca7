package reconciliation

import (
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
)

// Engine reconciles interaction histories. It holds no state besides the registry and
// may be called concurrently.
type Engine struct {
	registry *Registry
}

func NewEngine(registry *Registry) *Engine {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Engine{registry: registry}
}

type decodedPair struct {
	request  Request
	response Response
}

// ReconcileTransaction runs Reconcile over the stored history of tx. 3DS counts as
// requested when the transaction carries a 3DS version.
func (e *Engine) ReconcileTransaction(tx *domain.Transaction) (Result, error) {
	return e.Reconcile(tx.BillerName(), tx.Interactions().Pairs(), tx.ThreedsVersion() > 0)
}

// Reconcile turns the ordered request/response pairs of one transaction into the biller
// operations they stand for, plus the payment artifact of the last response.
// It never fails on the shape of the history; only an unknown biller is an error.
func (e *Engine) Reconcile(biller string, pairs []domain.InteractionPair, threeDSRequested bool) (Result, error) {
	profile, err := e.registry.Lookup(biller)
	if err != nil {
		return Result{}, err
	}
	if len(pairs) == 0 {
		return Result{}, nil
	}

	decoded := make([]decodedPair, len(pairs))
	for i, p := range pairs {
		if p.Request != nil {
			decoded[i].request = profile.Decoder.DecodeRequest(p.Request.Payload())
		}
		decoded[i].response = profile.Decoder.DecodeResponse(p.Response.Payload())
	}

	var records []BillerTransaction
	if profile.ThreeDSCapable {
		records = reduceThreeDS(profile, decoded, threeDSRequested)
	} else {
		records = onePerPair(profile, decoded)
	}

	return Result{
		Transactions: records,
		Artifact:     extractArtifact(profile, decoded[len(decoded)-1].response),
	}, nil
}

// reduceThreeDS applies the discard rules of 3DS-capable billers. pairs is never
// modified; start moves forward past the superseded attempts.
func reduceThreeDS(profile Profile, pairs []decodedPair, threeDSRequested bool) []BillerTransaction {
	codes := profile.Codes
	start, end := 0, len(pairs)

	// A pre-flight attempt rejected for SCA is superseded by the 3DS retry.
	if end-start > 1 && codes.isScaRequired(pairs[start].response) {
		start++
	}

	first := pairs[start].response
	threeDSTwoInitiated := codes.isThreeDSTwoInitiation(first)
	simplifiedInitiated := threeDSRequested && !first.HasReasonCode && first.PaymentLinkURL != ""
	threeDSTwoWithNSF := initiationFollowedByNSF(codes, pairs[start:end])
	pending := threeDSTwoInitiated && end-start == 1

	if end-start > 1 && threeDSTwoInitiated {
		start++
	}

	initialThreeDS := threeDSTwoInitiated || pending || simplifiedInitiated
	records := []BillerTransaction{buildRecord(profile, pairs[start], initialThreeDS)}

	if end-start <= 1 {
		return records
	}

	if threeDSTwoWithNSF {
		// The whole NSF retry chain under 3DS2 is recorded.
		for i := start + 1; i < end; i++ {
			records = append(records, buildRecord(profile, pairs[i], false))
		}
		return records
	}

	// Pairs between the first and the last are challenge steps, not operations.
	return append(records, buildRecord(profile, pairs[end-1], false))
}

// initiationFollowedByNSF reports whether a 3DS2 initiation is followed, anywhere
// later, by an over-limit decline.
func initiationFollowedByNSF(codes ReasonCodeTable, pairs []decodedPair) bool {
	initiated := false
	for _, p := range pairs {
		if initiated && codes.isDeclinedOverLimit(p.response) {
			return true
		}
		if codes.isThreeDSTwoInitiation(p.response) {
			initiated = true
		}
	}
	return false
}

func onePerPair(profile Profile, pairs []decodedPair) []BillerTransaction {
	records := make([]BillerTransaction, 0, len(pairs))
	for _, p := range pairs {
		records = append(records, buildRecord(profile, p, false))
	}
	return records
}

func buildRecord(profile Profile, p decodedPair, initialThreeDS bool) BillerTransaction {
	return BillerTransaction{
		InvoiceID:           firstNonEmpty(p.response.InvoiceID, p.request.InvoiceID),
		CustomerID:          firstNonEmpty(p.response.CustomerID, p.request.CustomerID),
		BillerTransactionID: p.response.TransactionID,
		Type:                classify(profile, p, initialThreeDS),
	}
}

// classify picks the record type by priority: card upload, then 3DS, then sale, with
// a free-sale approved amount turning the sale into an auth.
func classify(profile Profile, p decodedPair, initialThreeDS bool) TransactionType {
	codes := profile.Codes
	switch {
	case p.request.MigratedUpload:
		return TypeCardUpload
	case initialThreeDS || codes.isFailedThreeDS(p.response) || codes.isThreeDSAuthRequired(p.response):
		return TypeThreeDS
	case profile.isFreeSale(p.response.ApprovedAmount):
		return TypeAuth
	default:
		return TypeSale
	}
}

func extractArtifact(profile Profile, last Response) *PaymentArtifact {
	return &PaymentArtifact{
		CardHash:        last.CardHash,
		CardDescription: last.CardDescription,
		SubsequentOperationFields: map[string]OperationReference{
			profile.Biller: {
				ReferenceGUID:      last.TransactionID,
				MerchantAccount:    last.MerchantAccount,
				MerchantInvoiceID:  last.InvoiceID,
				MerchantCustomerID: last.CustomerID,
			},
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
