package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/reconciliation"
)

const saleHistory = `[
  {"type":"request","payload":{"merchantInvoiceID":"inv-1","merchantCustomerID":"cust-1","cardNo":"4111111111111111"},"createdAt":"2026-02-01T09:00:00Z"},
  {"type":"response","payload":{"reasonCode":"0","guidNo":"GUID-1","approvedAmount":"10.00","cardHash":"hash-1"},"createdAt":"2026-02-01T09:00:01Z"}
]`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReconcileCmd(t *testing.T) {
	t.Run("yaml from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.json")
		require.NoError(t, os.WriteFile(path, []byte(saleHistory), 0o600))

		out, err := execute(t, "", "reconcile", "--biller", domain.BillerRocketgate, path)
		require.NoError(t, err)

		var result reconciliation.Result
		require.NoError(t, yaml.Unmarshal([]byte(out), &result))
		require.Len(t, result.Transactions, 1)
		assert.Equal(t, reconciliation.TypeSale, result.Transactions[0].Type)
		assert.Equal(t, "GUID-1", result.Transactions[0].BillerTransactionID)
		require.NotNil(t, result.Artifact)
		assert.Equal(t, "hash-1", result.Artifact.CardHash)
	})

	t.Run("json from stdin", func(t *testing.T) {
		out, err := execute(t, saleHistory, "reconcile", "-b", domain.BillerRocketgate, "-o", "json", "-")
		require.NoError(t, err)

		var result reconciliation.Result
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		require.Len(t, result.Transactions, 1)
		assert.Equal(t, "inv-1", result.Transactions[0].InvoiceID)
	})

	t.Run("empty history", func(t *testing.T) {
		out, err := execute(t, "[]", "reconcile", "-b", domain.BillerNetbilling, "-o", "json", "-")
		require.NoError(t, err)
		assert.Contains(t, out, `"billerTransactions": []`)
		assert.Contains(t, out, `"paymentArtifact": null`)
	})

	t.Run("unknown biller", func(t *testing.T) {
		_, err := execute(t, saleHistory, "reconcile", "-b", "paypal", "-")
		assert.ErrorIs(t, err, reconciliation.ErrUnknownBiller)
	})

	t.Run("missing biller flag", func(t *testing.T) {
		_, err := execute(t, saleHistory, "reconcile", "-")
		assert.Error(t, err)
	})

	t.Run("bad interaction type", func(t *testing.T) {
		_, err := execute(t, `[{"type":"note","payload":{}}]`, "reconcile", "-b", domain.BillerRocketgate, "-")
		assert.ErrorIs(t, err, domain.ErrInvalidBillerInteractionType)
	})
}

func TestValidateCardCmd(t *testing.T) {
	out, err := execute(t, "", "validate-card", "4111 1111 1111 1111")
	require.NoError(t, err)
	assert.Contains(t, out, "brand:  visa")
	assert.Contains(t, out, "last4:  1111")
	assert.NotContains(t, out, "4111111111111111")

	_, err = execute(t, "", "validate-card", "4111111111111112")
	assert.ErrorIs(t, err, domain.ErrInvalidCreditCardNumber)
}
