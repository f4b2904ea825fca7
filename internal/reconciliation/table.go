package reconciliation

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
)

// DefaultFreeSaleAmount is the approved amount billers report for an authorization
// that was booked as a free sale.
const DefaultFreeSaleAmount = "0.00"

var ErrUnknownBiller = errors.New("no reconciliation profile for biller")

// ReasonCodeTable maps biller reason codes to the predicates the engine branches on.
type ReasonCodeTable struct {
	Approved []string `koanf:"approved"`
	// ScaRequired marks a pre-flight attempt the biller rejected because a 3DS
	// challenge is required; the retry that follows supersedes it.
	ScaRequired []string `koanf:"sca_required"`
	// ThreeDSAuthRequired asks the cardholder to complete a 3DS challenge.
	ThreeDSAuthRequired []string `koanf:"threeds_auth_required"`
	FailedThreeDS       []string `koanf:"failed_threeds"`
	// ThreeDSTwoInitiation starts a 3DS2 flow.
	ThreeDSTwoInitiation []string `koanf:"threeds2_initiation"`
	// DeclinedOverLimit is the NSF / over-limit decline.
	DeclinedOverLimit []string `koanf:"declined_over_limit"`
}

func (t ReasonCodeTable) isApproved(r Response) bool {
	return r.HasReasonCode && slices.Contains(t.Approved, r.ReasonCode)
}

func (t ReasonCodeTable) isScaRequired(r Response) bool {
	return r.HasReasonCode && slices.Contains(t.ScaRequired, r.ReasonCode)
}

func (t ReasonCodeTable) isThreeDSAuthRequired(r Response) bool {
	return r.HasReasonCode && slices.Contains(t.ThreeDSAuthRequired, r.ReasonCode)
}

func (t ReasonCodeTable) isFailedThreeDS(r Response) bool {
	return r.HasReasonCode && slices.Contains(t.FailedThreeDS, r.ReasonCode)
}

func (t ReasonCodeTable) isThreeDSTwoInitiation(r Response) bool {
	return r.HasReasonCode && slices.Contains(t.ThreeDSTwoInitiation, r.ReasonCode)
}

func (t ReasonCodeTable) isDeclinedOverLimit(r Response) bool {
	return r.HasReasonCode && slices.Contains(t.DeclinedOverLimit, r.ReasonCode)
}

func (t ReasonCodeTable) merge(over ReasonCodeTable) ReasonCodeTable {
	pick := func(cur, next []string) []string {
		if len(next) > 0 {
			return slices.Clone(next)
		}
		return cur
	}
	return ReasonCodeTable{
		Approved:             pick(t.Approved, over.Approved),
		ScaRequired:          pick(t.ScaRequired, over.ScaRequired),
		ThreeDSAuthRequired:  pick(t.ThreeDSAuthRequired, over.ThreeDSAuthRequired),
		FailedThreeDS:        pick(t.FailedThreeDS, over.FailedThreeDS),
		ThreeDSTwoInitiation: pick(t.ThreeDSTwoInitiation, over.ThreeDSTwoInitiation),
		DeclinedOverLimit:    pick(t.DeclinedOverLimit, over.DeclinedOverLimit),
	}
}

// Profile is everything the engine needs to know about one biller.
type Profile struct {
	Biller string
	// ThreeDSCapable billers go through the 3DS reduction rules; the others get one
	// record per request/response pair.
	ThreeDSCapable bool
	FreeSaleAmount string
	Codes          ReasonCodeTable
	Decoder        Decoder
}

func (p Profile) isFreeSale(approvedAmount string) bool {
	if approvedAmount == "" {
		return false
	}
	got, err := decimal.NewFromString(approvedAmount)
	if err != nil {
		return approvedAmount == p.FreeSaleAmount
	}
	want, err := decimal.NewFromString(p.FreeSaleAmount)
	if err != nil {
		return false
	}
	return got.Equal(want)
}

// Outcome classifies a live biller response for the status machine. A response
// without any code the profile knows is treated as an unknown outcome.
func (p Profile) Outcome(payload []byte) domain.BillerOutcome {
	r := p.Decoder.DecodeResponse(payload)
	c := p.Codes
	switch {
	case c.isApproved(r):
		return domain.OutcomeApproved
	case c.isScaRequired(r), c.isThreeDSAuthRequired(r), c.isThreeDSTwoInitiation(r):
		return domain.OutcomePending
	case !r.HasReasonCode && r.PaymentLinkURL != "":
		return domain.OutcomePending
	case !r.HasReasonCode:
		return domain.OutcomeAborted
	default:
		return domain.OutcomeDeclined
	}
}

// Registry holds the profiles by biller name. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewRegistry(profiles ...Profile) *Registry {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		r.profiles[p.Biller] = p
	}
	return r
}

// DefaultRegistry knows every biller this service talks to.
func DefaultRegistry() *Registry {
	return NewRegistry(rocketgateProfile(), netbillingProfile())
}

func (r *Registry) Register(p Profile) error {
	if p.Biller == "" || p.Decoder == nil {
		return fmt.Errorf("profile for %q needs a biller name and a decoder", p.Biller)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Biller] = p
	return nil
}

func (r *Registry) Lookup(biller string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[biller]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownBiller, biller)
	}
	return p, nil
}

// Override replaces reason codes of a known biller. Empty lists and an empty
// freeSaleAmount keep what the profile already has.
func (r *Registry) Override(biller string, codes ReasonCodeTable, freeSaleAmount string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[biller]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBiller, biller)
	}
	p.Codes = p.Codes.merge(codes)
	if freeSaleAmount != "" {
		p.FreeSaleAmount = freeSaleAmount
	}
	r.profiles[biller] = p
	return nil
}

// Outcome classifies payload with the profile of biller. Unknown billers yield an
// aborted outcome.
func (r *Registry) Outcome(biller string, payload []byte) domain.BillerOutcome {
	p, err := r.Lookup(biller)
	if err != nil {
		return domain.OutcomeAborted
	}
	return p.Outcome(payload)
}

// Billers returns the registered biller names, sorted.
func (r *Registry) Billers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
