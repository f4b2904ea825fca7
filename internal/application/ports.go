package application

import (
	"context"
	"time"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
)

// CardData is the unredacted card a charge is sent with. It never reaches the
// transaction or the store.
type CardData struct {
	Number          string
	CVV             string
	ExpirationMonth int
	ExpirationYear  int
}

// BillerCommand is one request to a biller. Settings and Card are unredacted.
type BillerCommand struct {
	TransactionID         string
	Kind                  domain.TransactionKind
	Settings              domain.BillerSettings
	Charge                *domain.ChargeInformation
	Card                  *CardData
	CardHash              string
	ThreeDS               bool
	PreviousTransactionID string
	// Completion is set when the command finishes a 3DS challenge.
	Completion *ThreeDSCompletion
}

// ThreeDSCompletion carries the cardholder's challenge result back to the biller.
// Challenge is the stored biller response that asked for the challenge.
type ThreeDSCompletion struct {
	PaRes     string
	Challenge []byte
}

// Redactor masks secrets in stored biller payloads and in logged merchant settings.
// obfuscation.Policy implements it.
type Redactor interface {
	domain.Redactor
	RedactMap(fields map[string]string) map[string]string
}

// BillerGateway is the port for the external billers. Execute never fails: transport
// problems come back as an aborted response.
type BillerGateway interface {
	Execute(ctx context.Context, cmd BillerCommand) domain.BillerResponse
}

// TransactionRepository is the port for persistence.
type TransactionRepository interface {
	domain.Repository
}

// IdempotencyStore remembers which transaction a client key produced.
type IdempotencyStore interface {
	// Claim binds key to transactionID. When the key is already bound with the same
	// request hash, the earlier transaction id is returned and claimed is false.
	Claim(ctx context.Context, key, requestHash, transactionID string, at time.Time) (existingID string, claimed bool, err error)
}
