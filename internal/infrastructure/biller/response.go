package biller

import (
	"time"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
)

// Response is the result of one gateway round-trip. It implements domain.BillerResponse.
type Response struct {
	outcome     domain.BillerOutcome
	request     []byte
	response    []byte
	requestedAt time.Time
	respondedAt time.Time
	err         error
}

func (r *Response) Outcome() domain.BillerOutcome { return r.outcome }
func (r *Response) RequestPayload() []byte        { return r.request }
func (r *Response) ResponsePayload() []byte       { return r.response }
func (r *Response) RequestedAt() time.Time        { return r.requestedAt }
func (r *Response) RespondedAt() time.Time        { return r.respondedAt }

// Err is the failure behind an aborted or declined response, if any.
func (r *Response) Err() error { return r.err }
