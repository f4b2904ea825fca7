package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
)

// toDomainModel: maps db model to domain entity
func toDomainModel(m TransactionModel) (*domain.Transaction, error) {
	var snapshot domain.TransactionSnapshot
	if err := json.Unmarshal(m.Snapshot, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot of transaction %s: %w", m.ID, err)
	}
	return domain.Reconstitute(snapshot), nil
}

// toDBModel: maps domain entity to db model
func toDBModel(t *domain.Transaction) (TransactionModel, error) {
	snapshot, err := json.Marshal(t.Snapshot())
	if err != nil {
		return TransactionModel{}, fmt.Errorf("encode snapshot of transaction %s: %w", t.ID(), err)
	}

	var previous *string
	if id := t.PreviousTransactionID(); id != "" {
		previous = &id
	}

	return TransactionModel{
		ID:                    t.ID(),
		Kind:                  string(t.Kind()),
		Status:                t.Status().String(),
		BillerName:            t.BillerName(),
		PreviousTransactionID: previous,
		Version:               t.Version(),
		Snapshot:              snapshot,
		CreatedAt:             t.CreatedAt(),
		UpdatedAt:             t.UpdatedAt(),
	}, nil
}

func toEventModel(e domain.Event) (EventModel, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return EventModel{}, fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	return EventModel{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		Sequence:      e.Sequence,
		Type:          string(e.Type),
		Payload:       payload,
		OccurredAt:    e.OccurredAt,
	}, nil
}

func toDomainEvent(m EventModel) (domain.Event, error) {
	var e domain.Event
	if err := json.Unmarshal(m.Payload, &e); err != nil {
		return domain.Event{}, fmt.Errorf("decode event %s: %w", m.ID, err)
	}
	return e, nil
}
