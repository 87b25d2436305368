package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/joestump/joe-market/internal/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens",
	}
	cmd.AddCommand(newTokenCreateCmd())
	return cmd
}

func newTokenCreateCmd() *cobra.Command {
	var address, name string
	var expiresIn time.Duration
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API token bound to an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAccount("address", address)
			if err != nil {
				return err
			}
			e, closer, err := setup("token")
			if err != nil {
				return err
			}
			defer closer()

			plaintext, hash, err := auth.GenerateToken()
			if err != nil {
				return err
			}
			var expiresAt *time.Time
			if expiresIn > 0 {
				t := time.Now().Add(expiresIn).UTC()
				expiresAt = &t
			}
			rec, err := auth.NewSQLTokenStore(e.db).Create(cmd.Context(), addr.Hex(), name, hash, expiresAt)
			if err != nil {
				return err
			}
			e.log.Infof("token %s created for %s", rec.ID, addr.Hex())
			cmd.Println(plaintext)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "account the token acts as (required)")
	cmd.Flags().StringVar(&name, "name", "cli", "token name")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "token lifetime, e.g. 720h (default: never expires)")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}
