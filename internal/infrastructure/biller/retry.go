package biller

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/config"
)

type RetryClient struct {
	inner      Client
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryClient(inner Client, cfg config.RetryConfig) *RetryClient {
	maxRetries := int(cfg.MaxRetries)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryClient{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: maxRetries,
	}
}

// Send with retry logic. The idempotency key stays the same on every attempt.
func (r *RetryClient) Send(ctx context.Context, req Request) ([]byte, error) {
	body, err := retry(r, ctx, func(ctx context.Context) (*[]byte, error) {
		b, err := r.inner.Send(ctx, req)
		if err != nil {
			return nil, err
		}
		return &b, nil
	})
	if err != nil {
		return nil, err
	}
	return *body, nil
}

// Generic retry helper
func retry[T any](r *RetryClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

// Helper: to check retryable errors
func isRetryable(err error) bool {
	if billerErr, ok := IsBillerError(err); ok {
		return billerErr.IsRetryable()
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryClient) backoff(attempt int) time.Duration {
	if r.baseDelay <= 0 {
		return 0
	}
	base := r.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Int63n(int64(r.baseDelay)))

	return base + jitter
}
