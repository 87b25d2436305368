package main

import (
	"github.com/spf13/cobra"

	"github.com/joestump/joe-market/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and report the schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			// setup migrates before returning
			e, closer, err := setup("migrate")
			if err != nil {
				return err
			}
			defer closer()

			version, err := db.SchemaVersion(e.db, e.cfg.DB.Driver)
			if err != nil {
				return err
			}
			e.log.Infof("schema at version %d", version)
			cmd.Printf("schema at version %d\n", version)
			return nil
		},
	}
}
