package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
)

func validateCardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-card [number]",
		Short: "Check a card number and print its brand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := domain.NewCreditCardNumber(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "number: %s\n", card)
			fmt.Fprintf(out, "brand:  %s\n", card.Type())
			fmt.Fprintf(out, "first6: %s\n", card.First6())
			fmt.Fprintf(out, "last4:  %s\n", card.Last4())
			return nil
		},
	}
}
