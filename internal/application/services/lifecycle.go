package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/persistence"
)

// LifecycleService moves stored transactions through the status changes that do not
// involve a biller call: refunds and chargebacks reported after the fact, and aborts
// of transactions that never got an answer.
type LifecycleService struct {
	repo   application.TransactionRepository
	logger *slog.Logger
}

func NewLifecycleService(repo application.TransactionRepository, logger *slog.Logger) *LifecycleService {
	return &LifecycleService{
		repo:   repo,
		logger: logger,
	}
}

func (s *LifecycleService) Refund(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.transition(ctx, id, "refund", (*domain.Transaction).Refund)
}

func (s *LifecycleService) Chargeback(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.transition(ctx, id, "chargeback", (*domain.Transaction).Chargeback)
}

func (s *LifecycleService) Abort(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.transition(ctx, id, "abort", (*domain.Transaction).Abort)
}

// AbortTransaction aborts an already loaded transaction, as the pending sweeper does.
func (s *LifecycleService) AbortTransaction(ctx context.Context, tx *domain.Transaction) error {
	if _, err := tx.Abort(); err != nil {
		return application.NewInvalidStateError(err)
	}
	return s.save(ctx, tx, "abort")
}

func (s *LifecycleService) transition(
	ctx context.Context,
	id string,
	action string,
	change func(*domain.Transaction) (domain.Event, error),
) (*domain.Transaction, error) {
	tx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id)
	}

	if _, err := change(tx); err != nil {
		s.logger.Warn("rejected status change",
			"transaction_id", id,
			"action", action,
			"status", tx.Status(),
			"error", err,
		)
		return nil, application.NewInvalidStateError(err)
	}

	if err := s.save(ctx, tx, action); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *LifecycleService) save(ctx context.Context, tx *domain.Transaction, action string) error {
	if err := s.repo.Save(ctx, tx); err != nil {
		s.logger.Error("failed to save transaction",
			"transaction_id", tx.ID(),
			"action", action,
			"error", err,
		)
		if errors.Is(err, persistence.ErrVersionConflict) {
			return application.NewConflictError(err)
		}
		return application.NewInternalError(err)
	}

	s.logger.Info("transaction status changed",
		"transaction_id", tx.ID(),
		"action", action,
		"status", tx.Status(),
	)
	return nil
}
