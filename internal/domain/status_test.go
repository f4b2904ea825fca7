package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
)

type statusMutator struct {
	name   string
	target domain.Status
	apply  func(domain.Status) (domain.Status, error)
}

var mutators = []statusMutator{
	{"approve", domain.StatusApproved, domain.Status.Approve},
	{"decline", domain.StatusDeclined, domain.Status.Decline},
	{"abort", domain.StatusAborted, domain.Status.Abort},
	{"refund", domain.StatusRefunded, domain.Status.Refund},
	{"chargeback", domain.StatusChargedback, domain.Status.Chargeback},
}

func TestStatus_LegalTransitions(t *testing.T) {
	tests := []struct {
		from domain.Status
		to   domain.Status
	}{
		{domain.StatusPending, domain.StatusApproved},
		{domain.StatusPending, domain.StatusDeclined},
		{domain.StatusPending, domain.StatusAborted},
		{domain.StatusApproved, domain.StatusRefunded},
		{domain.StatusApproved, domain.StatusChargedback},
		{domain.StatusRefunded, domain.StatusChargedback},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+" -> "+tt.to.String(), func(t *testing.T) {
			for _, m := range mutators {
				if m.target != tt.to {
					continue
				}
				next, err := m.apply(tt.from)

				require.NoError(t, err)
				assert.Equal(t, tt.to, next)
			}
		})
	}
}

// allowed is the transition matrix, from -> to.
var allowed = map[domain.Status]map[domain.Status]bool{
	domain.StatusPending:     {domain.StatusApproved: true, domain.StatusDeclined: true, domain.StatusAborted: true},
	domain.StatusApproved:    {domain.StatusApproved: true, domain.StatusRefunded: true, domain.StatusChargedback: true},
	domain.StatusDeclined:    {domain.StatusDeclined: true},
	domain.StatusAborted:     {domain.StatusAborted: true},
	domain.StatusRefunded:    {domain.StatusRefunded: true, domain.StatusChargedback: true},
	domain.StatusChargedback: {domain.StatusChargedback: true},
}

func TestStatus_TransitionMatrix(t *testing.T) {
	for _, from := range domain.AllStatuses() {
		for _, to := range domain.AllStatuses() {
			assert.Equal(t, allowed[from][to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_IllegalTransitions(t *testing.T) {
	illegal := 0
	for _, from := range domain.AllStatuses() {
		for _, m := range mutators {
			if allowed[from][m.target] {
				continue
			}
			illegal++
			t.Run(from.String()+" cannot "+m.name, func(t *testing.T) {
				original := from

				next, err := m.apply(original)

				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrIllegalStateTransition)
				assert.True(t, domain.IsErrorCode(err, domain.ErrCodeIllegalStateTransition))

				var transitionErr *domain.IllegalStateTransitionError
				require.ErrorAs(t, err, &transitionErr)
				assert.Equal(t, from, transitionErr.From)
				assert.Equal(t, m.target, transitionErr.Attempted)

				assert.Equal(t, from.String(), original.String())
				assert.Equal(t, from, next)
			})
		}
	}
	// 30 pairs in the table, 11 of them legal.
	assert.Equal(t, 19, illegal)
}

func TestStatus_SelfTransitionsAreIdempotent(t *testing.T) {
	tests := []struct {
		status domain.Status
		apply  func(domain.Status) (domain.Status, error)
	}{
		{domain.StatusApproved, domain.Status.Approve},
		{domain.StatusDeclined, domain.Status.Decline},
		{domain.StatusAborted, domain.Status.Abort},
		{domain.StatusRefunded, domain.Status.Refund},
		{domain.StatusChargedback, domain.Status.Chargeback},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			next, err := tt.apply(tt.status)

			require.NoError(t, err)
			assert.Equal(t, tt.status, next)
		})
	}
}

func TestParseStatus(t *testing.T) {
	t.Run("round trips every status", func(t *testing.T) {
		for _, s := range domain.AllStatuses() {
			parsed, err := domain.ParseStatus(s.String())

			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		for _, name := range []string{"", "Approved", "PENDING", "settled"} {
			_, err := domain.ParseStatus(name)

			assert.ErrorIs(t, err, domain.ErrUnknownStatus, name)
		}
	})
}

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   domain.Status
		terminal bool
	}{
		{domain.StatusPending, false},
		{domain.StatusApproved, false},
		{domain.StatusRefunded, false},
		{domain.StatusDeclined, true},
		{domain.StatusAborted, true},
		{domain.StatusChargedback, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}
