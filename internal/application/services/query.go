package services

import (
	"context"
	"errors"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/persistence"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/reconciliation"
)

type QueryService struct {
	repo   application.TransactionRepository
	engine *reconciliation.Engine
}

func NewQueryService(
	repo application.TransactionRepository,
	engine *reconciliation.Engine,
) *QueryService {
	return &QueryService{
		repo:   repo,
		engine: engine,
	}
}

func (s *QueryService) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	tx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id)
	}
	return tx, nil
}

func (s *QueryService) Events(ctx context.Context, id string) ([]domain.Event, error) {
	events, err := s.repo.Events(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id)
	}
	return events, nil
}

// Reconcile rebuilds the biller-side operations and payment artifact of a stored
// transaction from its interaction history.
func (s *QueryService) Reconcile(ctx context.Context, id string) (reconciliation.Result, error) {
	tx, err := s.FindByID(ctx, id)
	if err != nil {
		return reconciliation.Result{}, err
	}
	return s.engine.ReconcileTransaction(tx)
}

func notFoundOr(err error, id string) error {
	switch {
	case errors.Is(err, persistence.ErrTransactionNotFound):
		return application.NewNotFoundError(id)
	case errors.Is(err, context.DeadlineExceeded):
		return application.NewTimeoutError()
	}
	return application.NewInternalError(err)
}
