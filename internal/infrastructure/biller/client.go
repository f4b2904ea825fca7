package biller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/config"
)

// Request is one rendered call to a biller.
type Request struct {
	Biller         string
	Operation      string
	IdempotencyKey string
	Body           []byte
}

// Client sends a rendered request and returns the raw 2xx response body.
type Client interface {
	Send(ctx context.Context, req Request) ([]byte, error)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(cfg config.BillerConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *HTTPClient) Send(ctx context.Context, req Request) ([]byte, error) {
	endpoint, err := url.JoinPath(c.baseURL, "api", "v1", req.Biller, req.Operation)
	if err != nil {
		return nil, fmt.Errorf("error building url: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		billerErr := &BillerError{
			Code:       fmt.Sprintf("http_%d", resp.StatusCode),
			Message:    http.StatusText(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Body:       body,
		}
		var errResp BillerErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Err != "" {
			billerErr.Code = errResp.Err
			billerErr.Message = errResp.Message
		}
		return nil, billerErr
	}

	return body, nil
}
