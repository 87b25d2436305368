package main

import (
	"github.com/spf13/cobra"

	"github.com/joestump/joe-market/internal/build"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(build.String())
		},
	}
}
