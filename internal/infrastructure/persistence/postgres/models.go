package postgres

import (
	"time"
)

// TransactionModel is a row of the transactions table. Snapshot holds the full
// domain state; the other columns exist for querying.
type TransactionModel struct {
	ID                    string
	Kind                  string
	Status                string
	BillerName            string
	PreviousTransactionID *string
	Version               int
	Snapshot              []byte
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type EventModel struct {
	ID            string
	TransactionID string
	Sequence      int
	Type          string
	Payload       []byte
	OccurredAt    time.Time
}

// IdempotencyKey binds a client key to the transaction its first request created.
type IdempotencyKey struct {
	Key           string
	TransactionID string
	RequestHash   string
	CreatedAt     time.Time
}
