// Package domain holds the transaction aggregate, its status machine and the money,
// card and biller value objects it is built from.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionKind discriminates the transaction flavors.
type TransactionKind string

const (
	KindCharge       TransactionKind = "charge"
	KindRebillUpdate TransactionKind = "rebill-update"
	KindAuth         TransactionKind = "auth"
)

// Transaction is one charge attempt against a biller together with everything that
// was exchanged with the biller for it.
type Transaction struct {
	id                    string
	kind                  TransactionKind
	status                Status
	billerName            string
	chargeInformation     *ChargeInformation
	paymentInformation    PaymentInformation
	billerSettings        BillerSettings
	interactions          BillerInteractionCollection
	threedsVersion        int
	previousTransactionID string
	createdAt             time.Time
	updatedAt             time.Time

	version          int
	persistedVersion int
	events           []Event
}

// NewChargeTransaction starts a sale. A zero amount is a free sale.
func NewChargeTransaction(
	billerName string,
	charge ChargeInformation,
	payment PaymentInformation,
	settings BillerSettings,
) (*Transaction, error) {
	if payment.Method == "" {
		return nil, NewMissingRequiredFieldError("payment information")
	}
	return newTransaction(KindCharge, billerName, &charge, payment, settings, "")
}

// NewRebillUpdateTransaction changes the rebill of an earlier transaction. The payment
// information may be empty when the biller charges the card stored for the previous one.
func NewRebillUpdateTransaction(
	previousTransactionID string,
	billerName string,
	charge ChargeInformation,
	payment PaymentInformation,
	settings BillerSettings,
) (*Transaction, error) {
	if previousTransactionID == "" {
		return nil, NewMissingRequiredFieldError("previous transaction id")
	}
	return newTransaction(KindRebillUpdate, billerName, &charge, payment, settings, previousTransactionID)
}

// NewAuthTransaction starts an authorization; charge may be nil.
func NewAuthTransaction(
	billerName string,
	charge *ChargeInformation,
	payment PaymentInformation,
	settings BillerSettings,
) (*Transaction, error) {
	if payment.Method == "" {
		return nil, NewMissingRequiredFieldError("payment information")
	}
	return newTransaction(KindAuth, billerName, charge, payment, settings, "")
}

func newTransaction(
	kind TransactionKind,
	billerName string,
	charge *ChargeInformation,
	payment PaymentInformation,
	settings BillerSettings,
	previousTransactionID string,
) (*Transaction, error) {
	if billerName == "" {
		return nil, NewMissingRequiredFieldError("biller name")
	}
	if settings.Biller != billerName {
		return nil, NewMissingMerchantInformationError(billerName, "biller settings")
	}
	if charge != nil {
		if err := charge.validate(); err != nil {
			return nil, err
		}
	}

	t := &Transaction{id: uuid.New().String()}
	e := newEvent(t, EventTransactionCreated, time.Now())
	e.Created = &TransactionCreated{
		Kind:                  kind,
		BillerName:            billerName,
		ChargeInformation:     charge.clone(),
		PaymentInformation:    payment,
		BillerSettings:        settings.Redacted(),
		PreviousTransactionID: previousTransactionID,
	}
	t.record(e)
	return t, nil
}

func (t *Transaction) ID() string                             { return t.id }
func (t *Transaction) Kind() TransactionKind                  { return t.kind }
func (t *Transaction) Status() Status                         { return t.status }
func (t *Transaction) BillerName() string                     { return t.billerName }
func (t *Transaction) PaymentInformation() PaymentInformation { return t.paymentInformation }
func (t *Transaction) BillerSettings() BillerSettings         { return t.billerSettings.clone() }
func (t *Transaction) Interactions() BillerInteractionCollection {
	return t.interactions
}
func (t *Transaction) ThreedsVersion() int           { return t.threedsVersion }
func (t *Transaction) PreviousTransactionID() string { return t.previousTransactionID }
func (t *Transaction) CreatedAt() time.Time          { return t.createdAt }
func (t *Transaction) UpdatedAt() time.Time          { return t.updatedAt }
func (t *Transaction) Version() int                  { return t.version }

// ChargeInformation returns nil for auth transactions created without an amount.
func (t *Transaction) ChargeInformation() *ChargeInformation {
	return t.chargeInformation.clone()
}

// Events returns the ordered events of this transaction known to this instance.
func (t *Transaction) Events() []Event {
	out := make([]Event, 0, len(t.events))
	for _, e := range t.events {
		out = append(out, e.clone())
	}
	return out
}

// EventsAfter returns the events with a sequence greater than version.
func (t *Transaction) EventsAfter(version int) []Event {
	var out []Event
	for _, e := range t.events {
		if e.Sequence > version {
			out = append(out, e.clone())
		}
	}
	return out
}

// PersistedVersion is the version the store last saw; zero for a new transaction.
func (t *Transaction) PersistedVersion() int { return t.persistedVersion }

// PendingEvents returns the events recorded since the transaction was loaded or last saved.
func (t *Transaction) PendingEvents() []Event {
	return t.EventsAfter(t.persistedVersion)
}

// MarkPersisted is called by repositories once the pending events are stored.
func (t *Transaction) MarkPersisted() {
	t.persistedVersion = t.version
}

// AddBillerInteraction appends an interaction to the history. Existing entries are
// never touched.
func (t *Transaction) AddBillerInteraction(interaction BillerInteraction) (Event, error) {
	if interaction.ID() == "" {
		return Event{}, NewMissingRequiredFieldError("biller interaction")
	}
	e := newEvent(t, EventBillerInteractionAdded, time.Now())
	e.InteractionAdded = &BillerInteractionAdded{Interaction: snapshotInteraction(interaction)}
	return t.record(e), nil
}

func (t *Transaction) UpdateThreedsVersion(version int) Event {
	e := newEvent(t, EventThreedsVersionUpdated, time.Now())
	e.ThreedsVersionSet = &ThreedsVersionUpdated{Version: version}
	return t.record(e)
}

func (t *Transaction) Approve() (Event, error) {
	return t.changeStatus(t.status.Approve)
}

func (t *Transaction) Decline() (Event, error) {
	return t.changeStatus(t.status.Decline)
}

func (t *Transaction) Abort() (Event, error) {
	return t.changeStatus(t.status.Abort)
}

func (t *Transaction) Refund() (Event, error) {
	return t.changeStatus(t.status.Refund)
}

func (t *Transaction) Chargeback() (Event, error) {
	return t.changeStatus(t.status.Chargeback)
}

func (t *Transaction) changeStatus(next func() (Status, error)) (Event, error) {
	to, err := next()
	if err != nil {
		return Event{}, err
	}
	e := newEvent(t, EventTransactionStatusChanged, time.Now())
	e.StatusChanged = &StatusChanged{From: t.status, To: to}
	return t.record(e), nil
}

// ApplyBillerResponse records the interactions of a biller round-trip and moves the
// status according to its outcome. An aborted response can only abort; a pending one
// leaves the status alone. The interactions are kept even when the transition fails.
func (t *Transaction) ApplyBillerResponse(resp BillerResponse, redactor Redactor) ([]Event, error) {
	var events []Event

	if payload := resp.RequestPayload(); payload != nil {
		e, err := t.recordInteraction(InteractionRequest, payload, resp.RequestedAt(), redactor)
		if err != nil {
			return events, err
		}
		events = append(events, e)
	}
	if payload := resp.ResponsePayload(); payload != nil {
		e, err := t.recordInteraction(InteractionResponse, payload, resp.RespondedAt(), redactor)
		if err != nil {
			return events, err
		}
		events = append(events, e)
	}

	var (
		e   Event
		err error
	)
	switch resp.Outcome() {
	case OutcomeApproved:
		e, err = t.Approve()
	case OutcomeDeclined:
		e, err = t.Decline()
	case OutcomeAborted:
		e, err = t.Abort()
	default:
		return events, nil
	}
	if err != nil {
		return events, err
	}
	return append(events, e), nil
}

func (t *Transaction) recordInteraction(kind InteractionType, payload []byte, at time.Time, redactor Redactor) (Event, error) {
	interaction, err := NewBillerInteraction(string(kind), payload, at, redactor)
	if err != nil {
		return Event{}, err
	}
	return t.AddBillerInteraction(interaction)
}

// InteractionSnapshot is the storable form of a BillerInteraction.
type InteractionSnapshot struct {
	ID        string          `json:"id"`
	Type      InteractionType `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

func snapshotInteraction(b BillerInteraction) InteractionSnapshot {
	return InteractionSnapshot{
		ID:        b.ID(),
		Type:      b.Type(),
		Payload:   b.Payload(),
		CreatedAt: b.CreatedAt(),
	}
}

func (s InteractionSnapshot) toInteraction() BillerInteraction {
	return ReconstituteBillerInteraction(s.ID, s.Type, s.Payload, s.CreatedAt)
}

// TransactionSnapshot is the full state of a transaction, as stored by repositories.
type TransactionSnapshot struct {
	ID                    string                `json:"id"`
	Kind                  TransactionKind       `json:"kind"`
	Status                Status                `json:"status"`
	BillerName            string                `json:"billerName"`
	ChargeInformation     *ChargeInformation    `json:"chargeInformation,omitempty"`
	PaymentInformation    PaymentInformation    `json:"paymentInformation"`
	BillerSettings        BillerSettings        `json:"billerSettings"`
	Interactions          []InteractionSnapshot `json:"billerInteractions"`
	ThreedsVersion        int                   `json:"threedsVersion,omitempty"`
	PreviousTransactionID string                `json:"previousTransactionId,omitempty"`
	CreatedAt             time.Time             `json:"createdAt"`
	UpdatedAt             time.Time             `json:"updatedAt"`
	Version               int                   `json:"version"`
}

func (t *Transaction) Snapshot() TransactionSnapshot {
	interactions := make([]InteractionSnapshot, 0, t.interactions.Len())
	for _, item := range t.interactions.items {
		interactions = append(interactions, snapshotInteraction(item))
	}
	return TransactionSnapshot{
		ID:                    t.id,
		Kind:                  t.kind,
		Status:                t.status,
		BillerName:            t.billerName,
		ChargeInformation:     t.chargeInformation.clone(),
		PaymentInformation:    t.paymentInformation,
		BillerSettings:        t.billerSettings.clone(),
		Interactions:          interactions,
		ThreedsVersion:        t.threedsVersion,
		PreviousTransactionID: t.previousTransactionID,
		CreatedAt:             t.createdAt,
		UpdatedAt:             t.updatedAt,
		Version:               t.version,
	}
}

// Reconstitute - special constructor for loading from storage. The snapshot was
// validated when it was written, so no construction rule runs again.
func Reconstitute(s TransactionSnapshot) *Transaction {
	items := make([]BillerInteraction, 0, len(s.Interactions))
	for _, i := range s.Interactions {
		items = append(items, i.toInteraction())
	}

	return &Transaction{
		id:                    s.ID,
		kind:                  s.Kind,
		status:                s.Status,
		billerName:            s.BillerName,
		chargeInformation:     s.ChargeInformation.clone(),
		paymentInformation:    s.PaymentInformation,
		billerSettings:        s.BillerSettings.clone(),
		interactions:          NewBillerInteractionCollection(items...),
		threedsVersion:        s.ThreedsVersion,
		previousTransactionID: s.PreviousTransactionID,
		createdAt:             s.CreatedAt,
		updatedAt:             s.UpdatedAt,
		version:               s.Version,
		persistedVersion:      s.Version,
	}
}
