package domain

import "slices"

// Status is the life-cycle state of a transaction. The zero value is not a valid status;
// use StatusPending for new transactions or ParseStatus for stored names.
type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusDeclined    Status = "declined"
	StatusAborted     Status = "aborted"
	StatusRefunded    Status = "refunded"
	StatusChargedback Status = "chargedback"
)

// transitions lists, per state, every state it may move to (self-transitions included).
var transitions = map[Status][]Status{
	StatusPending:     {StatusApproved, StatusDeclined, StatusAborted},
	StatusApproved:    {StatusApproved, StatusRefunded, StatusChargedback},
	StatusDeclined:    {StatusDeclined},
	StatusAborted:     {StatusAborted},
	StatusRefunded:    {StatusRefunded, StatusChargedback},
	StatusChargedback: {StatusChargedback},
}

// AllStatuses returns every known status in declaration order.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusApproved,
		StatusDeclined,
		StatusAborted,
		StatusRefunded,
		StatusChargedback,
	}
}

// ParseStatus reconstructs a Status from its canonical lower-case name.
func ParseStatus(name string) (Status, error) {
	s := Status(name)
	if _, ok := transitions[s]; !ok {
		return "", NewUnknownStatusError(name)
	}
	return s, nil
}

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(transitions[s], target)
}

func (s Status) Approve() (Status, error) {
	return s.transition(StatusApproved)
}

func (s Status) Decline() (Status, error) {
	return s.transition(StatusDeclined)
}

func (s Status) Abort() (Status, error) {
	return s.transition(StatusAborted)
}

func (s Status) Refund() (Status, error) {
	return s.transition(StatusRefunded)
}

func (s Status) Chargeback() (Status, error) {
	return s.transition(StatusChargedback)
}

func (s Status) transition(target Status) (Status, error) {
	if !s.CanTransitionTo(target) {
		return s, NewIllegalStateTransitionError(s, target)
	}
	return target, nil
}

// IsTerminal reports whether no transition other than a self-transition is possible.
func (s Status) IsTerminal() bool {
	for _, target := range transitions[s] {
		if target != s {
			return false
		}
	}
	return true
}
