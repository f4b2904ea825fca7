package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/persistence"
)

type ChargeService struct {
	repo        application.TransactionRepository
	idempotency application.IdempotencyStore
	gateway     application.BillerGateway
	redactor    application.Redactor
	logger      *slog.Logger
	now         func() time.Time
}

// NewChargeService builds the service. idempotency may be nil, in which case
// idempotency keys are ignored.
func NewChargeService(
	repo application.TransactionRepository,
	idempotency application.IdempotencyStore,
	gateway application.BillerGateway,
	redactor application.Redactor,
	logger *slog.Logger,
) *ChargeService {
	return &ChargeService{
		repo:        repo,
		idempotency: idempotency,
		gateway:     gateway,
		redactor:    redactor,
		logger:      logger,
		now:         time.Now,
	}
}

// Charge creates the transaction, stores it as pending, sends it to the biller and
// stores the outcome. A biller failure is not an error: the transaction is aborted.
func (s *ChargeService) Charge(ctx context.Context, cmd ChargeCommand) (*ChargeResult, error) {
	tx, err := s.newTransaction(cmd)
	if err != nil {
		return nil, application.NewInvalidInputError(err)
	}
	if cmd.ThreedsVersion > 0 {
		tx.UpdateThreedsVersion(cmd.ThreedsVersion)
	}

	if cmd.IdempotencyKey != "" && s.idempotency != nil {
		existingID, claimed, err := s.idempotency.Claim(ctx, cmd.IdempotencyKey, ComputeHash(cmd), tx.ID(), s.now())
		if err != nil {
			if errors.Is(err, persistence.ErrIdempotencyMismatch) {
				return nil, application.NewIdempotencyMismatchError()
			}
			return nil, application.NewInternalError(err)
		}
		if !claimed {
			return s.replay(ctx, existingID)
		}
	}

	if err := s.repo.Save(ctx, tx); err != nil {
		s.logger.Error("failed to save pending transaction", "transaction_id", tx.ID(), "error", err)
		return nil, application.NewInternalError(err)
	}

	resp := s.gateway.Execute(ctx, application.BillerCommand{
		TransactionID:         tx.ID(),
		Kind:                  tx.Kind(),
		Settings:              cmd.Settings,
		Charge:                tx.ChargeInformation(),
		Card:                  normalizedCard(cmd.Card),
		CardHash:              cmd.CardHash,
		ThreeDS:               tx.ThreedsVersion() > 0,
		PreviousTransactionID: cmd.PreviousTransactionID,
	})

	// the outcome is stored even when the caller has gone away
	saveCtx := context.WithoutCancel(ctx)

	if _, err := tx.ApplyBillerResponse(resp, s.redactor); err != nil {
		s.logger.Error("failed to apply biller response",
			"transaction_id", tx.ID(),
			"outcome", resp.Outcome(),
			"error", err,
		)
		if saveErr := s.repo.Save(saveCtx, tx); saveErr != nil {
			s.logger.Error("failed to save transaction", "transaction_id", tx.ID(), "error", saveErr)
		}
		return nil, application.NewInvalidStateError(err)
	}

	if err := s.repo.Save(saveCtx, tx); err != nil {
		s.logger.Error("failed to save transaction", "transaction_id", tx.ID(), "error", err)
		if errors.Is(err, persistence.ErrVersionConflict) {
			return nil, application.NewConflictError(err)
		}
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("charge completed",
		"transaction_id", tx.ID(),
		"biller", tx.BillerName(),
		"kind", tx.Kind(),
		"outcome", resp.Outcome(),
		"status", tx.Status(),
	)
	s.logUnsettled(tx, resp, cmd.Settings)

	return &ChargeResult{Transaction: tx, Events: tx.Events()}, nil
}

// ContinueThreeDS sends the cardholder's challenge result for a pending transaction
// and stores the biller's answer, as Charge does for the first round-trip.
func (s *ChargeService) ContinueThreeDS(ctx context.Context, cmd ContinueThreeDSCommand) (*ChargeResult, error) {
	if cmd.PaRes == "" {
		return nil, application.NewInvalidInputError(domain.NewMissingRequiredFieldError("paRes"))
	}

	tx, err := s.repo.FindByID(ctx, cmd.TransactionID)
	if err != nil {
		return nil, notFoundOr(err, cmd.TransactionID)
	}
	if cmd.Settings.Biller != tx.BillerName() {
		return nil, application.NewInvalidInputError(
			fmt.Errorf("settings are for %q, transaction went to %q", cmd.Settings.Biller, tx.BillerName()))
	}

	pairs := tx.Interactions().Pairs()
	if tx.Status() != domain.StatusPending || len(pairs) == 0 {
		return nil, application.NewInvalidStateError(
			fmt.Errorf("transaction %s is %s and has no open 3DS challenge", tx.ID(), tx.Status()))
	}
	challenge := pairs[len(pairs)-1].Response.Payload()

	resp := s.gateway.Execute(ctx, application.BillerCommand{
		TransactionID:         tx.ID(),
		Kind:                  tx.Kind(),
		Settings:              cmd.Settings,
		Charge:                tx.ChargeInformation(),
		ThreeDS:               true,
		PreviousTransactionID: tx.PreviousTransactionID(),
		Completion:            &application.ThreeDSCompletion{PaRes: cmd.PaRes, Challenge: challenge},
	})

	saveCtx := context.WithoutCancel(ctx)
	events, err := tx.ApplyBillerResponse(resp, s.redactor)
	if err != nil {
		s.logger.Error("failed to apply biller response",
			"transaction_id", tx.ID(),
			"outcome", resp.Outcome(),
			"error", err,
		)
		if saveErr := s.repo.Save(saveCtx, tx); saveErr != nil {
			s.logger.Error("failed to save transaction", "transaction_id", tx.ID(), "error", saveErr)
		}
		return nil, application.NewInvalidStateError(err)
	}

	if err := s.repo.Save(saveCtx, tx); err != nil {
		s.logger.Error("failed to save transaction", "transaction_id", tx.ID(), "error", err)
		if errors.Is(err, persistence.ErrVersionConflict) {
			return nil, application.NewConflictError(err)
		}
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("3ds challenge completed",
		"transaction_id", tx.ID(),
		"biller", tx.BillerName(),
		"outcome", resp.Outcome(),
		"status", tx.Status(),
	)
	s.logUnsettled(tx, resp, cmd.Settings)

	return &ChargeResult{Transaction: tx, Events: events}, nil
}

// logUnsettled records the merchant settings of a declined or aborted call so a
// misconfigured merchant can be told apart from a refused card.
func (s *ChargeService) logUnsettled(tx *domain.Transaction, resp domain.BillerResponse, settings domain.BillerSettings) {
	switch resp.Outcome() {
	case domain.OutcomeDeclined, domain.OutcomeAborted:
	default:
		return
	}
	s.logger.Warn("biller call did not settle",
		"transaction_id", tx.ID(),
		"outcome", resp.Outcome(),
		"merchant", s.redactor.RedactMap(settings.LogFields()),
	)
}

func (s *ChargeService) replay(ctx context.Context, id string) (*ChargeResult, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrTransactionNotFound) {
			return nil, application.NewRequestProcessingError()
		}
		return nil, application.NewInternalError(err)
	}
	s.logger.Info("replayed charge for idempotency key", "transaction_id", id)
	return &ChargeResult{Transaction: existing, Replayed: true}, nil
}

func (s *ChargeService) newTransaction(cmd ChargeCommand) (*domain.Transaction, error) {
	payment, err := s.paymentInformation(cmd)
	if err != nil {
		return nil, err
	}

	var charge *domain.ChargeInformation
	if cmd.Charge != nil {
		c, err := domain.CreateChargeInformationFromCharge(*cmd.Charge)
		if err != nil {
			return nil, err
		}
		charge = &c
	}

	billerName := cmd.Settings.Biller
	switch cmd.Kind {
	case domain.KindAuth:
		return domain.NewAuthTransaction(billerName, charge, payment, cmd.Settings)
	case domain.KindRebillUpdate:
		if charge == nil {
			return nil, domain.NewMissingRequiredFieldError("charge")
		}
		return domain.NewRebillUpdateTransaction(cmd.PreviousTransactionID, billerName, *charge, payment, cmd.Settings)
	case domain.KindCharge, "":
		if charge == nil {
			return nil, domain.NewMissingRequiredFieldError("charge")
		}
		return domain.NewChargeTransaction(billerName, *charge, payment, cmd.Settings)
	default:
		return nil, domain.NewMissingRequiredFieldError("transaction kind")
	}
}

func (s *ChargeService) paymentInformation(cmd ChargeCommand) (domain.PaymentInformation, error) {
	switch {
	case cmd.Card != nil:
		number, err := domain.NewCreditCardNumber(cmd.Card.Number)
		if err != nil {
			return domain.PaymentInformation{}, err
		}
		return domain.NewCCPaymentInformation(number, cmd.Card.CVV, cmd.Card.ExpirationMonth, cmd.Card.ExpirationYear, s.now())
	case cmd.CardHash != "":
		return domain.NewCardHashPaymentInformation(cmd.CardHash)
	default:
		return domain.PaymentInformation{}, nil
	}
}

func normalizedCard(card *application.CardData) *application.CardData {
	if card == nil {
		return nil
	}
	number, err := domain.NewCreditCardNumber(card.Number)
	if err != nil {
		return card
	}
	c := *card
	c.Number = number.Number()
	return &c
}
