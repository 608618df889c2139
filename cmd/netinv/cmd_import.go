package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"go_netinv/internal/db"
	"go_netinv/internal/inventory"
)

func newImportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import devices from a YAML inventory",
		Long: `Create devices listed in a YAML inventory file. Devices whose name
already exists are skipped; invalid entries are reported.

  netinv import -f devices.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := inventory.Load(file)
			if err != nil {
				return err
			}

			gdb, st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close(gdb)

			rep, err := inventory.Import(context.Background(), st, f, nil)
			if err != nil {
				return err
			}

			fmt.Printf("created %d, skipped %d, invalid %d\n", len(rep.Created), len(rep.Skipped), len(rep.Invalid))
			for _, name := range rep.Skipped {
				fmt.Printf("  skipped %s: already exists\n", name)
			}
			names := make([]string, 0, len(rep.Invalid))
			for name := range rep.Invalid {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  invalid %s: %s\n", name, rep.Invalid[name])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "inventory YAML file")
	cmd.MarkFlagRequired("file")
	return cmd
}
