package domain

import "time"

// BillerOutcome is what a biller round-trip means for the transaction status.
type BillerOutcome string

const (
	OutcomeApproved BillerOutcome = "approved"
	OutcomeDeclined BillerOutcome = "declined"
	// OutcomePending means the biller asked for another step (a 3DS challenge).
	OutcomePending BillerOutcome = "pending"
	// OutcomeAborted means the outcome is unknown: the biller was unreachable or the
	// call was never attempted.
	OutcomeAborted BillerOutcome = "aborted"
)

// BillerResponse is the adapter-side result of one biller round-trip.
type BillerResponse interface {
	Outcome() BillerOutcome
	// RequestPayload is nil when nothing reached the wire.
	RequestPayload() []byte
	// ResponsePayload is nil when no response was received.
	ResponsePayload() []byte
	RequestedAt() time.Time
	RespondedAt() time.Time
}
