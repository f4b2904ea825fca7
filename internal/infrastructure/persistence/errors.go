// Package persistence holds the errors shared by the transaction stores.
package persistence

import "errors"

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrVersionConflict means the stored transaction moved on since it was loaded.
	ErrVersionConflict     = errors.New("transaction version conflict")
	ErrIdempotencyMismatch = errors.New("idempotency key reused with a different request")
)
