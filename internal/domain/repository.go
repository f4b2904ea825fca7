package domain

import (
	"context"
	"time"
)

type Repository interface {
	// Save persists the transaction snapshot and the events recorded since it was loaded.
	Save(ctx context.Context, transaction *Transaction) error

	// FindByID retrieves a transaction
	FindByID(ctx context.Context, id string) (*Transaction, error)

	// Events returns the stored events of a transaction ordered by sequence.
	Events(ctx context.Context, id string) ([]Event, error)

	// FindStalePending returns transactions still pending that were last updated before cutoff.
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*Transaction, error)
}
