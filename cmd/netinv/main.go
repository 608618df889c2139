// netinv is the network device inventory and remote management server.
//
// Usage:
//
//	netinv serve                          Run the HTTP API, socket.io and status worker
//	netinv migrate                        Create or update database tables
//	netinv check-devices                  Reconcile every device status once
//	netinv user create -u <name> -r <role> Create an operator account
//	netinv import -f devices.yaml         Import devices from a YAML inventory
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go_netinv/internal/config"
	"go_netinv/internal/util"
)

var (
	configPath string
	verbose    bool

	cfg *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "netinv",
	Short:             "Network device inventory and remote management",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFromINI(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if verbose {
			cfg.Log.Level = "debug"
		}
		return util.InitLogger(util.LogOptions{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			File:   cfg.Log.File,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "INI config file (environment variables take precedence)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newCheckDevicesCmd(),
		newUserCmd(),
		newImportCmd(),
	)
}
