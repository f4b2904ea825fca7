package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application/services"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/config"
)

// PendingSweeper aborts transactions that stayed pending longer than the configured
// timeout, e.g. after a crash between the pending save and the biller answer or a 3DS
// challenge the customer never completed.
type PendingSweeper struct {
	repo      application.TransactionRepository
	lifecycle *services.LifecycleService
	cfg       config.WorkerConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewPendingSweeper(
	repo application.TransactionRepository,
	lifecycle *services.LifecycleService,
	cfg config.WorkerConfig,
	logger *slog.Logger,
) *PendingSweeper {
	return &PendingSweeper{
		repo:      repo,
		lifecycle: lifecycle,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (w *PendingSweeper) Start(ctx context.Context) {
	w.logger.Info("pending sweeper started",
		"interval", w.cfg.Interval,
		"pending_timeout", w.cfg.PendingTimeout,
	)
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.run(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("pending sweeper stopping")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

func (w *PendingSweeper) run(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil {
		w.logger.Error("pending sweep failed", "error", err)
	}
}

// RunOnce aborts one batch of stale pending transactions and returns how many were
// aborted. A failure on one transaction does not stop the batch.
func (w *PendingSweeper) RunOnce(ctx context.Context) (int, error) {
	cutoff := w.now().Add(-w.cfg.PendingTimeout)

	stale, err := w.repo.FindStalePending(ctx, cutoff, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	var aborted int
	for _, tx := range stale {
		if ctx.Err() != nil {
			return aborted, ctx.Err()
		}
		if err := w.lifecycle.AbortTransaction(ctx, tx); err != nil {
			w.logger.Error("failed to abort stale transaction",
				"transaction_id", tx.ID(),
				"updated_at", tx.UpdatedAt(),
				"error", err,
			)
			continue
		}
		aborted++
	}

	w.logger.Info("processed stale pending transactions",
		"found", len(stale),
		"aborted", aborted,
	)
	return aborted, nil
}
