package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go_netinv/internal/devicehealth"
	"go_netinv/internal/model"
)

func newCheckDevicesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check-devices",
		Short: "Reconcile every device status once",
		Long: `Probe every device (ICMP echo, then the SSH port) and store the
resulting online/offline status. Devices in maintenance or error keep their
status but get last_seen updated.

  netinv check-devices
  netinv check-devices --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			obs, err := a.reconciler.ReconcileAll(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(obs)
			}
			printObservations(obs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "JSON output")
	return cmd
}

func printObservations(obs []devicehealth.Observation) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEVICE\tIP\tICMP\tSSH\tSTATUS\tNOTE")

	online := 0
	for _, o := range obs {
		status := string(o.Status)
		note := ""
		if !o.Applied {
			status = string(o.PreviousStatus)
			note = "held"
		} else if o.Changed() {
			note = "was " + string(o.PreviousStatus)
		}
		if o.Status == model.DeviceStatusOnline {
			online++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", o.DeviceName, o.IPAddress, yesNo(o.Reachable), yesNo(o.ServiceReachable), status, note)
	}
	w.Flush()

	fmt.Printf("\n%d devices checked, %d online, %d offline\n", len(obs), online, len(obs)-online)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
