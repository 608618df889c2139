package devicecmd

import (
	"context"
	"fmt"
	"strings"

	"go_netinv/internal/model"
	"go_netinv/internal/store"
)

// DefaultBackupCommand is used for vendors missing from the table
const DefaultBackupCommand = "show running-config"

var backupCommands = map[string]string{
	"cisco":   "show running-config",
	"juniper": "show configuration",
	"hp":      "show running-config",
}

// BackupCommandFor returns the command dumping a vendor's running config
func BackupCommandFor(vendor string) string {
	if cmd, ok := backupCommands[strings.ToLower(strings.TrimSpace(vendor))]; ok {
		return cmd
	}
	return DefaultBackupCommand
}

// Backup captures the device's current configuration. ok is false when no
// backup could be taken; that is not an error.
func (o *Orchestrator) Backup(ctx context.Context, d *model.Device) (output string, ok bool) {
	cmd := BackupCommandFor(d.Vendor)
	res := o.runner.Execute(ctx, TargetFor(d), cmd)
	if !res.Success {
		o.logger.WithField("device", d.Name).
			WithField("command", cmd).
			Warnf("no backup available: %s", res.Output)
		return "", false
	}
	return res.Output, true
}

// ApplyConfiguration records a new active configuration for a device, with
// the running config captured just before as its backup. Nothing is pushed
// to the device.
func (o *Orchestrator) ApplyConfiguration(ctx context.Context, actor model.Actor, deviceID int, name, content string) (*model.DeviceConfiguration, error) {
	d, err := o.loadDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	backup, _ := o.Backup(context.WithoutCancel(ctx), d)

	cfg := &model.DeviceConfiguration{
		DeviceID:      d.ID,
		ConfigName:    name,
		ConfigContent: content,
		BackupConfig:  backup,
		AppliedByID:   actor.UIDPtr(),
		AppliedBy:     actor.Username,
		AppliedAt:     o.now(),
	}
	if err := o.store.CreateConfiguration(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save configuration for device %d: %w", d.ID, err)
	}

	o.logger.WithField("device", d.Name).
		WithField("config", name).
		WithField("has_backup", backup != "").
		Info("configuration recorded")
	return cfg, nil
}

// ListConfigurations returns a device's configurations, most recent first
func (o *Orchestrator) ListConfigurations(ctx context.Context, deviceID int, p store.Page) ([]model.DeviceConfiguration, error) {
	if _, err := o.loadDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	return o.store.ListConfigurations(ctx, deviceID, p)
}
