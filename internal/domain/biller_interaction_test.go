package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/obfuscation"
)

func TestNewBillerInteraction(t *testing.T) {
	now := time.Now()

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := domain.NewBillerInteraction("callback", []byte(`{}`), now, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidBillerInteractionType)
	})

	t.Run("rejects payload that is not JSON", func(t *testing.T) {
		_, err := domain.NewBillerInteraction("response", []byte(`reasonCode=0`), now, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidBillerInteractionPayload)
	})

	t.Run("redacts card data at construction", func(t *testing.T) {
		payload := []byte(`{"cardNo":"4111111111111111","cvv2":"123","amount":"10.00","nested":{"CVV":"999"}}`)

		interaction, err := domain.NewBillerInteraction("request", payload, now, obfuscation.DefaultPolicy())

		require.NoError(t, err)
		assert.True(t, interaction.IsRequest())
		assert.JSONEq(t,
			`{"cardNo":"*******","cvv2":"*******","amount":"10.00","nested":{"CVV":"*******"}}`,
			string(interaction.Payload()))
	})

	t.Run("payload copy is detached", func(t *testing.T) {
		interaction, err := domain.NewBillerInteraction("response", []byte(`{"reasonCode":"0"}`), now, nil)
		require.NoError(t, err)

		p := interaction.Payload()
		p[0] = 'x'

		assert.JSONEq(t, `{"reasonCode":"0"}`, string(interaction.Payload()))
	})

	t.Run("equality is structural", func(t *testing.T) {
		a := domain.ReconstituteBillerInteraction("id-1", domain.InteractionResponse, []byte(`{"a":1}`), now)
		b := domain.ReconstituteBillerInteraction("id-1", domain.InteractionResponse, []byte(`{"a":1}`), now)
		c := domain.ReconstituteBillerInteraction("id-1", domain.InteractionResponse, []byte(`{"a":2}`), now)

		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(c))
	})
}

func TestBillerInteractionCollection(t *testing.T) {
	base := time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC)
	req := func(id string, at time.Time) domain.BillerInteraction {
		return domain.ReconstituteBillerInteraction(id, domain.InteractionRequest, []byte(`{}`), at)
	}
	resp := func(id string, at time.Time) domain.BillerInteraction {
		return domain.ReconstituteBillerInteraction(id, domain.InteractionResponse, []byte(`{}`), at)
	}

	t.Run("append leaves the original untouched", func(t *testing.T) {
		empty := domain.NewBillerInteractionCollection()
		one := empty.Append(req("r1", base))

		assert.Equal(t, 0, empty.Len())
		assert.Equal(t, 1, one.Len())
	})

	t.Run("orders by creation time with ties in append order", func(t *testing.T) {
		c := domain.NewBillerInteractionCollection().
			Append(resp("late", base.Add(time.Minute))).
			Append(req("tie-1", base)).
			Append(req("tie-2", base))

		var ids []string
		for _, i := range c.All() {
			ids = append(ids, i.ID())
		}
		assert.Equal(t, []string{"tie-1", "tie-2", "late"}, ids)
	})

	t.Run("filter", func(t *testing.T) {
		c := domain.NewBillerInteractionCollection(req("r1", base), resp("s1", base.Add(time.Second)))

		responses := c.Filter(domain.BillerInteraction.IsResponse)

		require.Len(t, responses, 1)
		assert.Equal(t, "s1", responses[0].ID())
	})

	t.Run("pairs skip unanswered requests", func(t *testing.T) {
		c := domain.NewBillerInteractionCollection(
			req("r1", base),
			req("r2", base.Add(1*time.Second)),
			resp("s2", base.Add(2*time.Second)),
			resp("s3", base.Add(3*time.Second)),
			req("r4", base.Add(4*time.Second)),
		)

		pairs := c.Pairs()

		require.Len(t, pairs, 2)
		require.NotNil(t, pairs[0].Request)
		assert.Equal(t, "r2", pairs[0].Request.ID())
		assert.Equal(t, "s2", pairs[0].Response.ID())
		assert.Nil(t, pairs[1].Request)
		assert.Equal(t, "s3", pairs[1].Response.ID())
	})
}
