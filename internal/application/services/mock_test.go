package services

import (
	"context"
	"sync"
	"time"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/persistence"
)

// MockTransactionRepository keeps snapshots in memory unless a Fn field overrides a call.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]domain.TransactionSnapshot
	events       map[string][]domain.Event

	// SavedStatuses lists the status of every successful Save, in order.
	SavedStatuses []domain.Status

	SaveFn             func(ctx context.Context, tx *domain.Transaction) error
	FindByIDFn         func(ctx context.Context, id string) (*domain.Transaction, error)
	EventsFn           func(ctx context.Context, id string) ([]domain.Event, error)
	FindStalePendingFn func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]domain.TransactionSnapshot),
		events:       make(map[string][]domain.Event),
	}
}

var _ application.TransactionRepository = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) Save(ctx context.Context, tx *domain.Transaction) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if stored, ok := m.transactions[tx.ID()]; ok && stored.Version != tx.PersistedVersion() {
		return persistence.ErrVersionConflict
	}
	m.transactions[tx.ID()] = tx.Snapshot()
	m.events[tx.ID()] = append(m.events[tx.ID()], tx.PendingEvents()...)
	m.SavedStatuses = append(m.SavedStatuses, tx.Status())
	tx.MarkPersisted()
	return nil
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.transactions[id]; ok {
		return domain.Reconstitute(s), nil
	}
	return nil, persistence.ErrTransactionNotFound
}

func (m *MockTransactionRepository) Events(ctx context.Context, id string) ([]domain.Event, error) {
	if m.EventsFn != nil {
		return m.EventsFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	events, ok := m.events[id]
	if !ok {
		return nil, persistence.ErrTransactionNotFound
	}
	return events, nil
}

func (m *MockTransactionRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error) {
	if m.FindStalePendingFn != nil {
		return m.FindStalePendingFn(ctx, cutoff, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, s := range m.transactions {
		if s.Status == domain.StatusPending && s.UpdatedAt.Before(cutoff) {
			out = append(out, domain.Reconstitute(s))
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Put stores tx as if it had been saved earlier.
func (m *MockTransactionRepository) Put(tx *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID()] = tx.Snapshot()
	m.events[tx.ID()] = tx.Events()
	tx.MarkPersisted()
}

type MockBillerGateway struct {
	ExecuteFn func(ctx context.Context, cmd application.BillerCommand) domain.BillerResponse
	Calls     []application.BillerCommand
}

func (m *MockBillerGateway) Execute(ctx context.Context, cmd application.BillerCommand) domain.BillerResponse {
	m.Calls = append(m.Calls, cmd)
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return approvedResponse()
}

type MockIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string][2]string

	ClaimFn func(ctx context.Context, key, requestHash, transactionID string, at time.Time) (string, bool, error)
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{keys: make(map[string][2]string)}
}

func (m *MockIdempotencyStore) Claim(ctx context.Context, key, requestHash, transactionID string, at time.Time) (string, bool, error) {
	if m.ClaimFn != nil {
		return m.ClaimFn(ctx, key, requestHash, transactionID, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.keys[key]; ok {
		if existing[0] != requestHash {
			return "", false, persistence.ErrIdempotencyMismatch
		}
		return existing[1], false, nil
	}
	m.keys[key] = [2]string{requestHash, transactionID}
	return transactionID, true, nil
}

type stubResponse struct {
	outcome  domain.BillerOutcome
	request  []byte
	response []byte
}

func (r stubResponse) Outcome() domain.BillerOutcome { return r.outcome }
func (r stubResponse) RequestPayload() []byte        { return r.request }
func (r stubResponse) ResponsePayload() []byte       { return r.response }
func (r stubResponse) RequestedAt() time.Time        { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
func (r stubResponse) RespondedAt() time.Time        { return time.Date(2026, 3, 1, 10, 0, 1, 0, time.UTC) }

func approvedResponse() stubResponse {
	return stubResponse{
		outcome:  domain.OutcomeApproved,
		request:  []byte(`{"merchantInvoiceID":"inv-1","merchantCustomerID":"cust-1","cardNo":"4111111111111111"}`),
		response: []byte(`{"reasonCode":"0","guidNo":"GUID-1","approvedAmount":"10.20","cardHash":"hash-1","cardDescription":"VISA"}`),
	}
}
