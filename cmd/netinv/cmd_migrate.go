package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go_netinv/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := db.Open(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer db.Close(gdb)

			if err := db.Migrate(gdb); err != nil {
				return err
			}
			fmt.Printf("migrated %d tables\n", len(db.Models()))
			return nil
		},
	}
}
