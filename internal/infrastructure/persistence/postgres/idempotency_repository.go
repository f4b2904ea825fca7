package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/persistence"
)

type IdempotencyRepository struct {
	db *DB
}

func NewIdempotencyRepository(db *DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Claim binds key to transactionID unless the key is taken. A taken key with a
// different request hash is an error.
func (r *IdempotencyRepository) Claim(
	ctx context.Context,
	key, requestHash, transactionID string,
	at time.Time,
) (string, bool, error) {
	query := `
		INSERT INTO idempotency_keys (key, transaction_id, request_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING
	`

	tag, err := r.db.Pool.Exec(ctx, query, key, transactionID, requestHash, at)
	if err != nil {
		return "", false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return transactionID, true, nil
	}

	var existing IdempotencyKey
	checkQuery := `SELECT key, transaction_id, request_hash, created_at FROM idempotency_keys WHERE key = $1`
	err = r.db.Pool.QueryRow(ctx, checkQuery, key).Scan(
		&existing.Key,
		&existing.TransactionID,
		&existing.RequestHash,
		&existing.CreatedAt,
	)
	if err != nil {
		return "", false, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	if existing.RequestHash != requestHash {
		return "", false, persistence.ErrIdempotencyMismatch
	}
	return existing.TransactionID, false, nil
}
