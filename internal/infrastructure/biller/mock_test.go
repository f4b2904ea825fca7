package biller_test

import (
	"context"
	"sync"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/biller"
)

// MockClient
type MockClient struct {
	mu       sync.Mutex
	requests []biller.Request

	SendFn func(ctx context.Context, req biller.Request) ([]byte, error)
}

func (m *MockClient) Send(ctx context.Context, req biller.Request) ([]byte, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.SendFn != nil {
		return m.SendFn(ctx, req)
	}
	return []byte(`{}`), nil
}

func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockClient) LastRequest() biller.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}
