package biller_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/config"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/biller"
)

var testRequest = biller.Request{
	Biller:         "rocketgate",
	Operation:      biller.OperationPurchase,
	IdempotencyKey: "tx-1",
	Body:           []byte(`{"amount":"10.00"}`),
}

func newRetryClient(inner biller.Client, maxRetries int32) *biller.RetryClient {
	return biller.NewRetryClient(inner, config.RetryConfig{
		BaseDelay:  time.Millisecond,
		MaxRetries: maxRetries,
	})
}

func TestRetryClient_Send_Success(t *testing.T) {
	mockClient := &MockClient{SendFn: func(context.Context, biller.Request) ([]byte, error) {
		return []byte(`{"reasonCode":"0"}`), nil
	}}

	body, err := newRetryClient(mockClient, 3).Send(context.Background(), testRequest)

	require.NoError(t, err)
	assert.JSONEq(t, `{"reasonCode":"0"}`, string(body))
	assert.Equal(t, 1, mockClient.Calls())
	assert.Equal(t, testRequest, mockClient.LastRequest())
}

func TestRetryClient_Send_RetriesOn5xx(t *testing.T) {
	attempts := 0
	mockClient := &MockClient{SendFn: func(context.Context, biller.Request) ([]byte, error) {
		attempts++
		if attempts < 3 {
			return nil, &biller.BillerError{Code: "internal_error", StatusCode: 500}
		}
		return []byte(`{}`), nil
	}}

	_, err := newRetryClient(mockClient, 3).Send(context.Background(), testRequest)

	require.NoError(t, err)
	assert.Equal(t, 3, mockClient.Calls())
}

func TestRetryClient_Send_RetriesTransportErrors(t *testing.T) {
	attempts := 0
	mockClient := &MockClient{SendFn: func(context.Context, biller.Request) ([]byte, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("connection reset by peer")
		}
		return []byte(`{}`), nil
	}}

	_, err := newRetryClient(mockClient, 3).Send(context.Background(), testRequest)

	require.NoError(t, err)
	assert.Equal(t, 2, mockClient.Calls())
}

func TestRetryClient_Send_DoesNotRetryOn4xx(t *testing.T) {
	expectedErr := &biller.BillerError{Code: "invalid_card", Message: "Invalid card number", StatusCode: 400}
	mockClient := &MockClient{SendFn: func(context.Context, biller.Request) ([]byte, error) {
		return nil, expectedErr
	}}

	body, err := newRetryClient(mockClient, 3).Send(context.Background(), testRequest)

	require.Error(t, err)
	assert.Nil(t, body)
	billerErr, ok := biller.IsBillerError(err)
	require.True(t, ok)
	assert.Equal(t, "invalid_card", billerErr.Code)
	assert.Equal(t, 1, mockClient.Calls())
}

func TestRetryClient_Send_ExhaustsRetries(t *testing.T) {
	mockClient := &MockClient{SendFn: func(context.Context, biller.Request) ([]byte, error) {
		return nil, &biller.BillerError{Code: "internal_error", StatusCode: 503}
	}}

	_, err := newRetryClient(mockClient, 3).Send(context.Background(), testRequest)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum retries exceeded")
	assert.Equal(t, 3, mockClient.Calls())
}

func TestRetryClient_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mockClient := &MockClient{SendFn: func(context.Context, biller.Request) ([]byte, error) {
		cancel()
		return nil, &biller.BillerError{Code: "internal_error", StatusCode: 500}
	}}

	_, err := newRetryClient(mockClient, 10).Send(ctx, testRequest)

	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 1, mockClient.Calls())
}
