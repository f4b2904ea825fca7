package domain

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTransactionCreated       EventType = "transaction.created"
	EventBillerInteractionAdded   EventType = "transaction.biller_interaction_added"
	EventThreedsVersionUpdated    EventType = "transaction.threeds_version_updated"
	EventTransactionStatusChanged EventType = "transaction.status_changed"
)

type TransactionCreated struct {
	Kind                  TransactionKind    `json:"kind"`
	BillerName            string             `json:"billerName"`
	ChargeInformation     *ChargeInformation `json:"chargeInformation,omitempty"`
	PaymentInformation    PaymentInformation `json:"paymentInformation"`
	BillerSettings        BillerSettings     `json:"billerSettings"`
	PreviousTransactionID string             `json:"previousTransactionId,omitempty"`
}

type BillerInteractionAdded struct {
	Interaction InteractionSnapshot `json:"interaction"`
}

type ThreedsVersionUpdated struct {
	Version int `json:"version"`
}

type StatusChanged struct {
	From Status `json:"from"`
	To   Status `json:"to"`
}

// Event describes one change to a transaction. Sequence starts at 1 and grows by one
// per event of the same transaction. Exactly one of the payload fields is set,
// matching Type.
type Event struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	Sequence      int       `json:"sequence"`
	Type          EventType `json:"type"`
	OccurredAt    time.Time `json:"occurredAt"`

	Created           *TransactionCreated     `json:"created,omitempty"`
	InteractionAdded  *BillerInteractionAdded `json:"interactionAdded,omitempty"`
	ThreedsVersionSet *ThreedsVersionUpdated  `json:"threedsVersionUpdated,omitempty"`
	StatusChanged     *StatusChanged          `json:"statusChanged,omitempty"`
}

func newEvent(t *Transaction, eventType EventType, at time.Time) Event {
	return Event{
		ID:            uuid.New().String(),
		TransactionID: t.id,
		Sequence:      t.version + 1,
		Type:          eventType,
		OccurredAt:    at.UTC(),
	}
}

// clone copies the payload of e so the copy can be handed out without exposing
// the history.
func (e Event) clone() Event {
	if c := e.Created; c != nil {
		created := *c
		created.ChargeInformation = c.ChargeInformation.clone()
		created.BillerSettings = c.BillerSettings.clone()
		e.Created = &created
	}
	if a := e.InteractionAdded; a != nil {
		added := *a
		added.Interaction.Payload = bytes.Clone(a.Interaction.Payload)
		e.InteractionAdded = &added
	}
	if v := e.ThreedsVersionSet; v != nil {
		version := *v
		e.ThreedsVersionSet = &version
	}
	if s := e.StatusChanged; s != nil {
		changed := *s
		e.StatusChanged = &changed
	}
	return e
}

// record applies a private copy of e to t, appends it to the history and returns
// another copy to the caller.
func (t *Transaction) record(e Event) Event {
	stored := e.clone()
	t.apply(stored)
	t.events = append(t.events, stored)
	return stored.clone()
}

func (t *Transaction) apply(e Event) {
	switch e.Type {
	case EventTransactionCreated:
		c := e.Created
		t.id = e.TransactionID
		t.kind = c.Kind
		t.status = StatusPending
		t.billerName = c.BillerName
		t.chargeInformation = c.ChargeInformation.clone()
		t.paymentInformation = c.PaymentInformation
		t.billerSettings = c.BillerSettings.clone()
		t.previousTransactionID = c.PreviousTransactionID
		t.createdAt = e.OccurredAt
	case EventBillerInteractionAdded:
		t.interactions = t.interactions.Append(e.InteractionAdded.Interaction.toInteraction())
	case EventThreedsVersionUpdated:
		t.threedsVersion = e.ThreedsVersionSet.Version
	case EventTransactionStatusChanged:
		t.status = e.StatusChanged.To
	}
	t.version = e.Sequence
	t.updatedAt = e.OccurredAt
}

func (e Event) validate(expectedSequence int, transactionID string) error {
	if e.Sequence != expectedSequence {
		return NewInvalidEventError(fmt.Sprintf("event %s has sequence %d, expected %d", e.ID, e.Sequence, expectedSequence))
	}
	if transactionID != "" && e.TransactionID != transactionID {
		return NewInvalidEventError(fmt.Sprintf("event %s belongs to transaction %s", e.ID, e.TransactionID))
	}

	var ok bool
	switch e.Type {
	case EventTransactionCreated:
		ok = e.Created != nil && expectedSequence == 1
	case EventBillerInteractionAdded:
		ok = e.InteractionAdded != nil
	case EventThreedsVersionUpdated:
		ok = e.ThreedsVersionSet != nil
	case EventTransactionStatusChanged:
		ok = e.StatusChanged != nil
	}
	if (e.Type == EventTransactionCreated) != (expectedSequence == 1) {
		ok = false
	}
	if !ok {
		return NewInvalidEventError(fmt.Sprintf("event %s of type %q is malformed or out of place", e.ID, e.Type))
	}
	return nil
}

// Replay rebuilds a transaction from its ordered event list.
func Replay(events []Event) (*Transaction, error) {
	if len(events) == 0 {
		return nil, NewInvalidEventError("cannot replay an empty event list")
	}

	t := &Transaction{}
	for i, e := range events {
		if err := e.validate(i+1, t.id); err != nil {
			return nil, err
		}
		if c := e.StatusChanged; c != nil && (c.From != t.status || !c.From.CanTransitionTo(c.To)) {
			return nil, NewIllegalStateTransitionError(t.status, c.To)
		}
		t.record(e)
	}
	return t, nil
}
