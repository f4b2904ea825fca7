package biller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/config"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
)

// OutcomeClassifier reads a biller response body. reconciliation.Registry implements it.
type OutcomeClassifier interface {
	Outcome(biller string, payload []byte) domain.BillerOutcome
}

// rejected carries a 4xx answer through the breaker as a success: the biller is up.
type rejected struct {
	err *BillerError
}

// Gateway puts a circuit breaker per biller in front of a Client and turns every
// failure into an aborted or declined Response.
type Gateway struct {
	client     Client
	classifier OutcomeClassifier
	cfg        config.BreakerConfig
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewGateway(client Client, classifier OutcomeClassifier, cfg config.BreakerConfig, logger *slog.Logger) *Gateway {
	return &Gateway{
		client:     client,
		classifier: classifier,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
}

var _ application.BillerGateway = (*Gateway)(nil)

func (g *Gateway) breaker(biller string) *gobreaker.CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[biller]; ok {
		return cb
	}

	maxFailures := g.cfg.MaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        biller,
		MaxRequests: g.cfg.HalfOpenMaxRequests,
		Interval:    g.cfg.Interval,
		Timeout:     g.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("biller circuit breaker changed state",
				"biller", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	g.breakers[biller] = cb
	return cb
}

// State reports the breaker state of biller, for health output.
func (g *Gateway) State(biller string) gobreaker.State {
	return g.breaker(biller).State()
}

// Execute never returns an error. An open breaker or a transport failure yields an
// aborted response; a 4xx answer yields a declined one.
func (g *Gateway) Execute(ctx context.Context, cmd application.BillerCommand) domain.BillerResponse {
	requestedAt := g.now().UTC()

	req, err := buildRequest(cmd)
	if err != nil {
		g.logger.Error("failed to build biller request",
			"transaction_id", cmd.TransactionID,
			"biller", cmd.Settings.Biller,
			"error", err,
		)
		return &Response{outcome: domain.OutcomeAborted, requestedAt: requestedAt, respondedAt: requestedAt, err: err}
	}

	result, err := g.breaker(req.Biller).Execute(func() (interface{}, error) {
		body, err := g.client.Send(ctx, req)
		if billerErr, ok := IsBillerError(err); ok && !billerErr.IsRetryable() {
			return rejected{err: billerErr}, nil
		}
		return body, err
	})
	respondedAt := g.now().UTC()

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		g.logger.Warn("biller call short-circuited",
			"transaction_id", cmd.TransactionID,
			"biller", req.Biller,
			"error", err,
		)
		return &Response{outcome: domain.OutcomeAborted, requestedAt: requestedAt, respondedAt: respondedAt, err: err}
	}

	resp := &Response{
		request:     req.Body,
		requestedAt: requestedAt,
		respondedAt: respondedAt,
	}

	if err != nil {
		g.logger.Error("biller call failed",
			"transaction_id", cmd.TransactionID,
			"biller", req.Biller,
			"error", err,
		)
		resp.outcome = domain.OutcomeAborted
		resp.err = err
		return resp
	}

	if r, ok := result.(rejected); ok {
		g.logger.Info("biller rejected request",
			"transaction_id", cmd.TransactionID,
			"biller", req.Biller,
			"status", r.err.StatusCode,
			"code", r.err.Code,
		)
		resp.outcome = domain.OutcomeDeclined
		resp.err = r.err
		if json.Valid(r.err.Body) {
			resp.response = r.err.Body
		}
		return resp
	}

	body, _ := result.([]byte)
	if !json.Valid(body) {
		g.logger.Error("biller answered with an unreadable body",
			"transaction_id", cmd.TransactionID,
			"biller", req.Biller,
		)
		resp.outcome = domain.OutcomeAborted
		resp.err = errors.New("biller response is not valid JSON")
		return resp
	}

	resp.response = body
	resp.outcome = g.classifier.Outcome(req.Biller, body)
	return resp
}
