package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/config"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/reconciliation"
)

// historyEntry is one line of an exported interaction history.
type historyEntry struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [history.json]",
		Short: "Rebuild the biller operations of an interaction history",
		Long: `Reads a JSON array of {"type","payload","createdAt"} interactions (use "-" for
stdin) and prints the biller transactions and payment artifact it stands for.`,
		Args: cobra.ExactArgs(1),
		RunE: runReconcile,
	}

	cmd.Flags().StringP("biller", "b", "", "Biller name (rocketgate, netbilling)")
	cmd.Flags().Bool("threeds", false, "3DS was requested for the transaction")
	cmd.Flags().StringP("output", "o", "yaml", "Output format (yaml, json)")
	cmd.MarkFlagRequired("biller")

	return cmd
}

func runReconcile(cmd *cobra.Command, args []string) error {
	billerName, _ := cmd.Flags().GetString("biller")
	threeDS, _ := cmd.Flags().GetBool("threeds")
	output, _ := cmd.Flags().GetString("output")
	tablesFile, _ := cmd.Flags().GetString("tables")

	tables, err := config.LoadTables(tablesFile)
	if err != nil {
		return err
	}
	registry := reconciliation.DefaultRegistry()
	if err := tables.Apply(registry); err != nil {
		return err
	}

	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	var entries []historyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse history: %w", err)
	}

	policy := tables.Policy()
	history := domain.NewBillerInteractionCollection()
	for i, e := range entries {
		interaction, err := domain.NewBillerInteraction(e.Type, e.Payload, e.CreatedAt, policy)
		if err != nil {
			return fmt.Errorf("history entry %d: %w", i, err)
		}
		history = history.Append(interaction)
	}

	result, err := reconciliation.NewEngine(registry).Reconcile(billerName, history.Pairs(), threeDS)
	if err != nil {
		return err
	}

	return writeResult(cmd.OutOrStdout(), output, result)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func writeResult(w io.Writer, format string, result reconciliation.Result) error {
	if result.Transactions == nil {
		result.Transactions = []reconciliation.BillerTransaction{}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
