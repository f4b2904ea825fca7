package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application/services"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/config"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/biller"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/obfuscation"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/reconciliation"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/worker"
)

// fakeBiller answers every call with the configured status and body.
type fakeBiller struct {
	mu       sync.Mutex
	status   int
	body     string
	calls    int
	received []byte
}

func (f *fakeBiller) respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.body = body
	f.calls = 0
}

func (f *fakeBiller) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.received, _ = io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte(f.body))
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type chargeResult struct {
	Transaction struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"transaction"`
}

type IntegrationTestSuite struct {
	suite.Suite
	container testcontainers.Container
	db        *postgres.DB
	biller    *fakeBiller
	billerSrv *httptest.Server
	handler   http.Handler
	lifecycle *services.LifecycleService
	repo      *postgres.TransactionRepository
	logger    *slog.Logger
}

func TestIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "ledger",
				"POSTGRES_PASSWORD": "ledger",
				"POSTGRES_DB":       "ledger",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.container = container

	host, err := container.Host(ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(ctx, "5432")
	s.Require().NoError(err)

	s.db, err = postgres.Connect(ctx, &config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "ledger",
		Password:        "ledger",
		Name:            "ledger",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}, s.logger)
	s.Require().NoError(err)
	s.Require().NoError(s.db.Migrate(ctx))

	s.biller = &fakeBiller{status: http.StatusOK, body: `{"reasonCode":"0"}`}
	s.billerSrv = httptest.NewServer(s.biller)

	registry := reconciliation.DefaultRegistry()
	client := biller.NewHTTPClient(config.BillerConfig{BaseURL: s.billerSrv.URL, ConnTimeout: 5 * time.Second})
	retryClient := biller.NewRetryClient(client, config.RetryConfig{BaseDelay: time.Millisecond, MaxRetries: 2})
	gateway := biller.NewGateway(retryClient, registry, config.BreakerConfig{
		MaxFailures:         50,
		OpenTimeout:         time.Second,
		HalfOpenMaxRequests: 1,
	}, s.logger)

	s.repo = postgres.NewTransactionRepository(s.db)
	idempotency := postgres.NewIdempotencyRepository(s.db)
	s.lifecycle = services.NewLifecycleService(s.repo, s.logger)

	h := handlers.NewHandler(
		services.NewChargeService(s.repo, idempotency, gateway, obfuscation.DefaultPolicy(), s.logger),
		services.NewQueryService(s.repo, reconciliation.NewEngine(registry)),
		s.lifecycle,
		s.logger,
	)
	s.handler, err = handlers.NewRouter(ctx, h, 10*time.Second, s.logger)
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	if s.billerSrv != nil {
		s.billerSrv.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func (s *IntegrationTestSuite) TearDownTest() {
	_, err := s.db.Pool.Exec(context.Background(),
		"TRUNCATE TABLE transaction_events, transactions, idempotency_keys CASCADE;")
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) request(method, path string, body any, out any) int {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if out != nil {
		var env envelope
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
		s.Require().NoError(json.Unmarshal(env.Data, out))
	}
	return rec.Code
}

func (s *IntegrationTestSuite) charge() chargeResult {
	return s.chargeWith(nil)
}

func (s *IntegrationTestSuite) chargeWith(extra map[string]any) chargeResult {
	body := map[string]any{
		"kind":   "charge",
		"biller": "rocketgate",
		"settings": map[string]any{
			"merchantId":       "1483562",
			"merchantPassword": "s3cret",
		},
		"charge": map[string]any{"amount": "19.99", "currency": "USD"},
		"card": map[string]any{
			"number":          "4111111111111111",
			"cvv":             "123",
			"expirationMonth": 12,
			"expirationYear":  2099,
		},
	}
	for k, v := range extra {
		body[k] = v
	}
	var result chargeResult
	code := s.request(http.MethodPost, "/api/v1/charges", body, &result)
	s.Require().Equal(http.StatusCreated, code)
	return result
}

func (s *IntegrationTestSuite) TestApprovedChargeIsReconciled() {
	s.biller.respond(http.StatusOK, `{"reasonCode":"0","guidNo":"GUID-INT","cardHash":"hash-int","cardType":"VISA"}`)

	result := s.charge()
	s.Equal("approved", result.Transaction.Status)

	var reconciled struct {
		TransactionID string                             `json:"transactionId"`
		Transactions  []reconciliation.BillerTransaction `json:"billerTransactions"`
	}
	code := s.request(http.MethodGet, "/api/v1/transactions/"+result.Transaction.ID+"/biller-transactions", nil, &reconciled)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(result.Transaction.ID, reconciled.TransactionID)
	s.Require().Len(reconciled.Transactions, 1)
	s.Equal(reconciliation.TypeSale, reconciled.Transactions[0].Type)
	s.Equal("GUID-INT", reconciled.Transactions[0].BillerTransactionID)

	var refunded chargeResult
	code = s.request(http.MethodPost, "/api/v1/transactions/"+result.Transaction.ID+"/refund", nil, &refunded)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("refunded", refunded.Transaction.Status)
}

func (s *IntegrationTestSuite) TestDeclinedCharge() {
	s.biller.respond(http.StatusOK, `{"reasonCode":"105"}`)

	result := s.charge()

	s.Equal("declined", result.Transaction.Status)
	s.Equal(1, s.biller.calls)
}

func (s *IntegrationTestSuite) TestBillerOutageAbortsCharge() {
	s.biller.respond(http.StatusServiceUnavailable, `{"error":"unavailable","message":"maintenance"}`)

	result := s.charge()

	s.Equal("aborted", result.Transaction.Status)
	s.Equal(2, s.biller.calls)
}

func (s *IntegrationTestSuite) TestSweeperAbortsAbandonedChallenge() {
	s.biller.respond(http.StatusOK, `{"reasonCode":"202","guidNo":"GUID-3DS"}`)

	result := s.charge()
	s.Require().Equal("pending", result.Transaction.Status)

	time.Sleep(50 * time.Millisecond)
	sweeper := worker.NewPendingSweeper(s.repo, s.lifecycle, config.WorkerConfig{
		Interval:       time.Minute,
		BatchSize:      10,
		PendingTimeout: 10 * time.Millisecond,
	}, s.logger)

	aborted, err := sweeper.RunOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(1, aborted)

	var tx struct {
		Status   string `json:"status"`
		Terminal bool   `json:"terminal"`
	}
	code := s.request(http.MethodGet, "/api/v1/transactions/"+result.Transaction.ID, nil, &tx)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("aborted", tx.Status)
	s.True(tx.Terminal)
}

func (s *IntegrationTestSuite) TestThreeDSChallengeCompletes() {
	s.biller.respond(http.StatusOK, `{"reasonCode":"202","guidNo":"GUID-3DS"}`)

	result := s.chargeWith(map[string]any{"threedsVersion": 1})
	s.Require().Equal("pending", result.Transaction.Status)

	s.biller.respond(http.StatusOK, `{"reasonCode":"0","guidNo":"GUID-SALE","approvedAmount":"19.99"}`)
	var completed chargeResult
	code := s.request(http.MethodPost, "/api/v1/transactions/"+result.Transaction.ID+"/complete-threeds", map[string]any{
		"biller":   "rocketgate",
		"settings": map[string]any{"merchantId": "1483562", "merchantPassword": "s3cret"},
		"paRes":    "pares-int",
	}, &completed)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("approved", completed.Transaction.Status)

	var sent map[string]any
	s.Require().NoError(json.Unmarshal(s.biller.received, &sent))
	s.Equal("GUID-3DS", sent["referenceGUID"])
	s.Equal("pares-int", sent["PARES"])
	s.Equal("19.99", sent["amount"])

	var reconciled struct {
		Transactions []reconciliation.BillerTransaction `json:"billerTransactions"`
	}
	code = s.request(http.MethodGet, "/api/v1/transactions/"+result.Transaction.ID+"/biller-transactions", nil, &reconciled)
	s.Require().Equal(http.StatusOK, code)
	s.Require().Len(reconciled.Transactions, 2)
	s.Equal(reconciliation.TypeThreeDS, reconciled.Transactions[0].Type)
	s.Equal("GUID-3DS", reconciled.Transactions[0].BillerTransactionID)
	s.Equal(reconciliation.TypeSale, reconciled.Transactions[1].Type)
	s.Equal("GUID-SALE", reconciled.Transactions[1].BillerTransactionID)
}
