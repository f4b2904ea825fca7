package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/config"
)

const uniqueViolation = "23505"

// Executor is satisfied by both *pgxpool.Pool and pgx.Tx so the repositories can run
// inside or outside a transaction.
type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB owns the connection pool shared by the ledger repositories.
type DB struct {
	Pool   *pgxpool.Pool
	logger *slog.Logger
}

// Connect opens the pool and pings the ledger database before returning.
func Connect(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	pgxCfg, err := cfg.PgxConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger database config: %w", err)
	}

	logger.Info("connecting to ledger database",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, fmt.Errorf("create ledger pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping ledger database: %w", err)
	}

	logger.Info("ledger database ready",
		"max_conns", pgxCfg.MaxConns,
		"min_conns", pgxCfg.MinConns,
	)
	return &DB{Pool: pool, logger: logger}, nil
}

func (db *DB) Close() {
	db.logger.Info("closing ledger database pool")
	db.Pool.Close()
}

// WithTransaction runs fn in one database transaction and commits when fn succeeds.
// fn must use the executor it is given.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context, q Executor) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}
	return nil
}

// IsUniqueViolation reports a unique constraint violation, which the repositories read
// as a lost version race or a reused idempotency key.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
