package obfuscation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/obfuscation"
)

func TestPolicy_RedactJSON(t *testing.T) {
	policy := obfuscation.DefaultPolicy()

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "top level card fields",
			payload: `{"cardNo":"4111111111111111","cvv2":"123","amount":"10.00"}`,
			want:    `{"cardNo":"*******","cvv2":"*******","amount":"10.00"}`,
		},
		{
			name:    "nested and inside arrays",
			payload: `{"card":{"CardNumber":"5555555555554444"},"items":[{"cvv":"1"},{"sku":"a"}]}`,
			want:    `{"card":{"CardNumber":"*******"},"items":[{"cvv":"*******"},{"sku":"a"}]}`,
		},
		{
			name:    "3ds challenge result",
			payload: `{"PARES":"eJzVWNmSo0iS","referenceGUID":"g-1"}`,
			want:    `{"PARES":"*******","referenceGUID":"g-1"}`,
		},
		{
			name:    "null values stay null",
			payload: `{"cvv":null}`,
			want:    `{"cvv":null}`,
		},
		{
			name:    "numbers keep their precision",
			payload: `{"approvedAmount":10.10,"id":12345678901234567890}`,
			want:    `{"approvedAmount":10.10,"id":12345678901234567890}`,
		},
		{
			name:    "non object documents are untouched",
			payload: `"4111111111111111"`,
			want:    `"4111111111111111"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := policy.RedactJSON([]byte(tt.payload))

			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(out))
		})
	}

	t.Run("html characters are not escaped", func(t *testing.T) {
		out, err := policy.RedactJSON([]byte(`{"PAYMENT_LINK_URL":"https://pay.example/?a=1&b=<2>"}`))

		require.NoError(t, err)
		assert.Equal(t, `{"PAYMENT_LINK_URL":"https://pay.example/?a=1&b=<2>"}`, string(out))
	})

	t.Run("invalid JSON is an error", func(t *testing.T) {
		_, err := policy.RedactJSON([]byte(`{"cvv":`))
		assert.Error(t, err)
	})
}

func TestPolicy_Custom(t *testing.T) {
	policy := obfuscation.NewPolicy([]string{"IBAN"})

	assert.True(t, policy.ShouldRedact("iban"))
	assert.False(t, policy.ShouldRedact("cvv"))
	assert.Equal(t, []string{"iban"}, policy.Fields())
}

func TestPolicy_RedactMap(t *testing.T) {
	policy := obfuscation.DefaultPolicy()

	out := policy.RedactMap(map[string]string{"merchantPassword": "secret", "merchantId": "42", "password": ""})

	assert.Equal(t, map[string]string{"merchantPassword": obfuscation.Mask, "merchantId": "42", "password": ""}, out)
}
