package domain

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// InteractionType tells whether a payload was sent to or received from a biller.
type InteractionType string

const (
	InteractionRequest  InteractionType = "request"
	InteractionResponse InteractionType = "response"
)

// Redactor masks sensitive fields of a JSON payload. obfuscation.Policy implements it.
type Redactor interface {
	RedactJSON(payload []byte) ([]byte, error)
}

// BillerInteraction is one recorded request or response exchanged with a biller.
// The payload is redacted before the value is built and never changes afterwards.
type BillerInteraction struct {
	id        string
	kind      InteractionType
	payload   json.RawMessage
	createdAt time.Time
}

func NewBillerInteraction(kind string, payload []byte, createdAt time.Time, redactor Redactor) (BillerInteraction, error) {
	t := InteractionType(kind)
	if t != InteractionRequest && t != InteractionResponse {
		return BillerInteraction{}, NewInvalidBillerInteractionTypeError(kind)
	}

	var probe any
	if err := json.Unmarshal(payload, &probe); err != nil {
		return BillerInteraction{}, NewInvalidBillerInteractionPayloadError(err)
	}

	redacted := payload
	if redactor != nil {
		var err error
		redacted, err = redactor.RedactJSON(payload)
		if err != nil {
			return BillerInteraction{}, NewInvalidBillerInteractionPayloadError(err)
		}
	}

	return BillerInteraction{
		id:        uuid.New().String(),
		kind:      t,
		payload:   bytes.Clone(redacted),
		createdAt: createdAt.UTC(),
	}, nil
}

// ReconstituteBillerInteraction rebuilds an interaction read back from storage.
// The payload was redacted when it was first recorded.
func ReconstituteBillerInteraction(id string, kind InteractionType, payload []byte, createdAt time.Time) BillerInteraction {
	return BillerInteraction{
		id:        id,
		kind:      kind,
		payload:   bytes.Clone(payload),
		createdAt: createdAt.UTC(),
	}
}

func (b BillerInteraction) ID() string            { return b.id }
func (b BillerInteraction) Type() InteractionType { return b.kind }
func (b BillerInteraction) CreatedAt() time.Time  { return b.createdAt }

// Payload returns a copy of the redacted payload.
func (b BillerInteraction) Payload() json.RawMessage {
	return bytes.Clone(b.payload)
}

func (b BillerInteraction) IsRequest() bool  { return b.kind == InteractionRequest }
func (b BillerInteraction) IsResponse() bool { return b.kind == InteractionResponse }

func (b BillerInteraction) Equal(other BillerInteraction) bool {
	return b.id == other.id &&
		b.kind == other.kind &&
		b.createdAt.Equal(other.createdAt) &&
		bytes.Equal(b.payload, other.payload)
}

// InteractionPair is a request together with the response it produced.
// Request is nil when a response was recorded without one.
type InteractionPair struct {
	Request  *BillerInteraction
	Response BillerInteraction
}

// BillerInteractionCollection is an append-only log of interactions.
type BillerInteractionCollection struct {
	items []BillerInteraction
}

func NewBillerInteractionCollection(items ...BillerInteraction) BillerInteractionCollection {
	return BillerInteractionCollection{items: slices.Clone(items)}
}

// Append returns a collection with interaction added at the end. The receiver is unchanged.
func (c BillerInteractionCollection) Append(interaction BillerInteraction) BillerInteractionCollection {
	items := make([]BillerInteraction, len(c.items), len(c.items)+1)
	copy(items, c.items)
	return BillerInteractionCollection{items: append(items, interaction)}
}

func (c BillerInteractionCollection) Len() int {
	return len(c.items)
}

// All returns the interactions ordered by creation time, ties in append order.
func (c BillerInteractionCollection) All() []BillerInteraction {
	ordered := slices.Clone(c.items)
	slices.SortStableFunc(ordered, func(a, b BillerInteraction) int {
		return a.createdAt.Compare(b.createdAt)
	})
	return ordered
}

// Filter returns, in order, the interactions matching keep.
func (c BillerInteractionCollection) Filter(keep func(BillerInteraction) bool) []BillerInteraction {
	var out []BillerInteraction
	for _, item := range c.All() {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Pairs walks the ordered log and matches each response with the request right before
// it. A request never answered is not a biller operation and is skipped.
func (c BillerInteractionCollection) Pairs() []InteractionPair {
	var (
		pairs   []InteractionPair
		pending *BillerInteraction
	)
	for _, item := range c.All() {
		if item.IsRequest() {
			req := item
			pending = &req
			continue
		}
		pairs = append(pairs, InteractionPair{Request: pending, Response: item})
		pending = nil
	}
	return pairs
}

func (c BillerInteractionCollection) Equal(other BillerInteractionCollection) bool {
	return slices.EqualFunc(c.items, other.items, BillerInteraction.Equal)
}
