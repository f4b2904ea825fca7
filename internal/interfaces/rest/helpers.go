package rest

import (
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/reconciliation"
)

// Transaction is the API view of a transaction. Settings and payloads are already
// redacted inside the aggregate.
type Transaction struct {
	domain.TransactionSnapshot
	Terminal bool `json:"terminal"`
}

type ChargeResponse struct {
	Transaction Transaction    `json:"transaction"`
	Events      []domain.Event `json:"events"`
	Replayed    bool           `json:"replayed"`
}

type BillerTransactionsResponse struct {
	TransactionID string `json:"transactionId"`
	reconciliation.Result
}

func ToAPITransaction(tx *domain.Transaction) Transaction {
	return Transaction{
		TransactionSnapshot: tx.Snapshot(),
		Terminal:            tx.Status().IsTerminal(),
	}
}

func ToAPIEvents(events []domain.Event) []domain.Event {
	if events == nil {
		return []domain.Event{}
	}
	return events
}

func ToAPIBillerTransactions(id string, result reconciliation.Result) BillerTransactionsResponse {
	if result.Transactions == nil {
		result.Transactions = []reconciliation.BillerTransaction{}
	}
	return BillerTransactionsResponse{TransactionID: id, Result: result}
}
