package main

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/joestump/joe-market/internal/market"
)

func newFundCmd() *cobra.Command {
	var to, amount string
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Credit an account with newly minted base units",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAccount("to", to)
			if err != nil {
				return err
			}
			value, err := uint256.FromDecimal(amount)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
			e, closer, err := setup("fund")
			if err != nil {
				return err
			}
			defer closer()

			c := market.NewChain(e.db, e.log)
			rc, err := c.Mint(cmd.Context(), addr, value)
			if err != nil {
				return err
			}
			bal, err := c.Balance(cmd.Context(), addr)
			if err != nil {
				return err
			}
			cmd.Printf("tx %s: %s now holds %s\n", rc.ID, addr.Hex(), bal.Dec())
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "account to credit (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in base units (required)")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
