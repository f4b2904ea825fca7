package services

import (
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
)

// ChargeCommand asks for one charge, authorization or rebill update against a biller.
type ChargeCommand struct {
	IdempotencyKey string `json:"-"`

	Kind     domain.TransactionKind `json:"kind"`
	Settings domain.BillerSettings  `json:"settings"`
	// Charge may be nil for an authorization.
	Charge *domain.Charge `json:"charge,omitempty"`
	// Exactly one of Card and CardHash is set, except for rebill updates that reuse
	// the card of the previous transaction.
	Card                  *application.CardData `json:"card,omitempty"`
	CardHash              string                `json:"cardHash,omitempty"`
	ThreedsVersion        int                   `json:"threedsVersion,omitempty"`
	PreviousTransactionID string                `json:"previousTransactionId,omitempty"`
}

// ChargeResult is the transaction a charge produced and the events it recorded.
type ChargeResult struct {
	Transaction *domain.Transaction
	Events      []domain.Event
	// Replayed is set when the idempotency key matched an earlier request.
	Replayed bool
}

// ContinueThreeDSCommand resumes a transaction left pending by a 3DS challenge.
type ContinueThreeDSCommand struct {
	TransactionID string
	// Settings are sent again because the stored copy has its secrets masked. They must
	// name the biller the transaction went to.
	Settings domain.BillerSettings
	PaRes    string
}
