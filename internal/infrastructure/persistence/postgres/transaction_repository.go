package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/persistence"
)

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Save writes the snapshot and appends the pending events in one database
// transaction. The update only applies when the stored version still equals the
// version the transaction was loaded with.
func (r *TransactionRepository) Save(ctx context.Context, t *domain.Transaction) error {
	pending := t.PendingEvents()
	if len(pending) == 0 {
		return nil
	}

	m, err := toDBModel(t)
	if err != nil {
		return err
	}

	err = r.db.WithTransaction(ctx, func(ctx context.Context, q Executor) error {
		if t.PersistedVersion() == 0 {
			if err := r.insert(ctx, q, m); err != nil {
				return err
			}
		} else if err := r.update(ctx, q, m, t.PersistedVersion()); err != nil {
			return err
		}

		for _, e := range pending {
			if err := r.appendEvent(ctx, q, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	t.MarkPersisted()
	return nil
}

func (r *TransactionRepository) insert(ctx context.Context, q Executor, m TransactionModel) error {
	query := `
		INSERT INTO transactions (
			id, kind, status, biller_name, previous_transaction_id,
			version, snapshot, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		m.ID,
		m.Kind,
		m.Status,
		m.BillerName,
		m.PreviousTransactionID,
		m.Version,
		string(m.Snapshot),
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("insert transaction %s: %w", m.ID, persistence.ErrVersionConflict)
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) update(ctx context.Context, q Executor, m TransactionModel, expectedVersion int) error {
	query := `
		UPDATE transactions
		SET status = $2, version = $3, snapshot = $4, updated_at = $5
		WHERE id = $1 AND version = $6
	`

	tag, err := q.Exec(ctx, query,
		m.ID,
		m.Status,
		m.Version,
		string(m.Snapshot),
		m.UpdatedAt,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transaction %s at version %d: %w", m.ID, expectedVersion, persistence.ErrVersionConflict)
	}
	return nil
}

func (r *TransactionRepository) appendEvent(ctx context.Context, q Executor, e domain.Event) error {
	m, err := toEventModel(e)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transaction_events (id, transaction_id, sequence, type, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = q.Exec(ctx, query, m.ID, m.TransactionID, m.Sequence, m.Type, string(m.Payload), m.OccurredAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("append event %d of %s: %w", m.Sequence, m.TransactionID, persistence.ErrVersionConflict)
		}
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// FindByID retrieves a transaction
func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `
		SELECT id, kind, status, biller_name, previous_transaction_id,
		       version, snapshot, created_at, updated_at
		FROM transactions WHERE id = $1
	`

	m, err := scanTransaction(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, persistence.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return toDomainModel(m)
}

func (r *TransactionRepository) Events(ctx context.Context, id string) ([]domain.Event, error) {
	query := `
		SELECT id, transaction_id, sequence, type, payload, occurred_at
		FROM transaction_events
		WHERE transaction_id = $1
		ORDER BY sequence
	`

	rows, err := r.db.Pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var m EventModel
		if err := rows.Scan(&m.ID, &m.TransactionID, &m.Sequence, &m.Type, &m.Payload, &m.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e, err := toDomainEvent(m)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(events) == 0 {
		return nil, persistence.ErrTransactionNotFound
	}
	return events, nil
}

// FindStalePending returns pending transactions not touched since cutoff, oldest first.
func (r *TransactionRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error) {
	query := `
		SELECT id, kind, status, biller_name, previous_transaction_id,
		       version, snapshot, created_at, updated_at
		FROM transactions
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at
		LIMIT $3
	`

	rows, err := r.db.Pool.Query(ctx, query, domain.StatusPending.String(), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale transactions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t, err := toDomainModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (TransactionModel, error) {
	var m TransactionModel
	err := row.Scan(
		&m.ID,
		&m.Kind,
		&m.Status,
		&m.BillerName,
		&m.PreviousTransactionID,
		&m.Version,
		&m.Snapshot,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}
