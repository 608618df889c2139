// Package devicecmd runs commands on devices over SSH and keeps the command
// and configuration history.
package devicecmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go_netinv/internal/fanout"
	"go_netinv/internal/model"
	"go_netinv/internal/sshexec"
	"go_netinv/internal/store"
	"go_netinv/internal/util"
	"go_netinv/internal/ws"
)

// ErrDeviceNotFound is returned when a single-device operation names an unknown id
var ErrDeviceNotFound = fmt.Errorf("device %w", store.ErrNotFound)

// Runner executes one command on one target. *sshexec.Executor implements it.
type Runner interface {
	Execute(ctx context.Context, t sshexec.Target, command string) sshexec.Result
}

// Store is the persistence the orchestrator needs
type Store interface {
	GetDevice(ctx context.Context, id int) (*model.Device, error)
	GetDevicesByIDs(ctx context.Context, ids []int) ([]model.Device, error)
	CreateCommand(ctx context.Context, c *model.DeviceCommand) error
	MarkCommandRunning(ctx context.Context, id int) error
	FinishCommand(ctx context.Context, id int, out store.CommandOutcome) error
	FailStaleCommands(ctx context.Context, cutoff time.Time, msg string, at time.Time) (int64, error)
	ListCommands(ctx context.Context, deviceID int, p store.Page) ([]model.DeviceCommand, error)
	CreateConfiguration(ctx context.Context, cfg *model.DeviceConfiguration) error
	ListConfigurations(ctx context.Context, deviceID int, p store.Page) ([]model.DeviceConfiguration, error)
}

// BulkResult is one device's entry in a bulk run
type BulkResult struct {
	DeviceID   int                 `json:"device_id"`
	DeviceName string              `json:"device_name"`
	CommandID  int                 `json:"command_id"`
	Status     model.CommandStatus `json:"status"`
	Output     string              `json:"output"`
}

// Orchestrator runs commands and records their lifecycle
type Orchestrator struct {
	store     Store
	runner    Runner
	pool      *fanout.Pool
	publisher ws.Publisher
	now       func() time.Time
	logger    *logrus.Entry
}

// New creates an Orchestrator. publisher may be nil.
func New(st Store, runner Runner, pool *fanout.Pool, publisher ws.Publisher) *Orchestrator {
	if publisher == nil {
		publisher = ws.NopPublisher{}
	}
	return &Orchestrator{
		store:     st,
		runner:    runner,
		pool:      pool,
		publisher: publisher,
		now:       time.Now,
		logger:    util.WithComponent("devicecmd"),
	}
}

// TargetFor builds the SSH target of a device
func TargetFor(d *model.Device) sshexec.Target {
	return sshexec.Target{
		Host:     d.IPAddress,
		Port:     d.Port(),
		Username: d.SSHUsername,
		Password: d.SSHPassword,
	}
}

func (o *Orchestrator) loadDevice(ctx context.Context, id int) (*model.Device, error) {
	d, err := o.store.GetDevice(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrDeviceNotFound, id)
		}
		return nil, fmt.Errorf("load device %d: %w", id, err)
	}
	return d, nil
}

// Execute runs command on one device. The record is created as running and
// always ends completed or failed, whatever the executor reports.
func (o *Orchestrator) Execute(ctx context.Context, actor model.Actor, deviceID int, command string) (*model.DeviceCommand, error) {
	d, err := o.loadDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	rec := &model.DeviceCommand{
		DeviceID:     d.ID,
		Command:      command,
		Status:       model.CommandStatusRunning,
		ExecutedByID: actor.UIDPtr(),
		ExecutedBy:   actor.Username,
		ExecutedAt:   o.now(),
	}
	if err := o.store.CreateCommand(ctx, rec); err != nil {
		return nil, fmt.Errorf("create command record: %w", err)
	}

	// the outcome is recorded even if the caller goes away mid-command
	runCtx := context.WithoutCancel(ctx)
	res := o.runner.Execute(runCtx, TargetFor(d), command)
	if err := o.finish(runCtx, d, rec, res); err != nil {
		return rec, err
	}
	return rec, nil
}

// ExecuteBulk runs command on every known device in deviceIDs. Unknown ids
// are skipped and duplicates collapsed; results follow first occurrence.
// Each device succeeds or fails on its own.
func (o *Orchestrator) ExecuteBulk(ctx context.Context, actor model.Actor, command string, deviceIDs []int) ([]BulkResult, error) {
	ids := dedupe(deviceIDs)
	found, err := o.store.GetDevicesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve devices: %w", err)
	}
	byID := make(map[int]model.Device, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}

	devices := make([]model.Device, 0, len(byID))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			devices = append(devices, d)
		}
	}

	batchID := uuid.NewString()
	log := o.logger.WithFields(logrus.Fields{"batch_id": batchID, "devices": len(devices)})
	if skipped := len(ids) - len(devices); skipped > 0 {
		log.WithField("skipped", skipped).Debug("unknown device ids skipped")
	}

	results := make([]BulkResult, len(devices))
	records := make([]*model.DeviceCommand, len(devices))
	for i := range devices {
		d := &devices[i]
		results[i] = BulkResult{DeviceID: d.ID, DeviceName: d.Name}
		rec := &model.DeviceCommand{
			DeviceID:     d.ID,
			BatchID:      batchID,
			Command:      command,
			Status:       model.CommandStatusPending,
			ExecutedByID: actor.UIDPtr(),
			ExecutedBy:   actor.Username,
			ExecutedAt:   o.now(),
		}
		if err := o.store.CreateCommand(ctx, rec); err != nil {
			log.WithField("device", d.Name).WithError(err).Error("failed to create command record")
			results[i].Status = model.CommandStatusFailed
			results[i].Output = "failed to record command: " + err.Error()
			continue
		}
		records[i] = rec
		results[i].CommandID = rec.ID
		results[i].Status = rec.Status
	}

	// siblings must not be cancelled by the request going away
	taskCtx := context.WithoutCancel(ctx)
	errs := o.pool.Map(len(devices), func(i int) error {
		if records[i] == nil {
			return nil
		}
		results[i] = o.runOne(taskCtx, &devices[i], records[i])
		return nil
	})

	for i, err := range errs {
		if err == nil {
			continue
		}
		log.WithField("device", devices[i].Name).WithError(err).Error("bulk task failed")
		results[i].Status = model.CommandStatusFailed
		results[i].Output = err.Error()
		if records[i] != nil {
			o.failRecord(taskCtx, records[i], err.Error())
		}
	}

	log.Info("bulk command finished")
	return results, nil
}

// runOne moves a pending bulk record through running to a terminal state
func (o *Orchestrator) runOne(ctx context.Context, d *model.Device, rec *model.DeviceCommand) BulkResult {
	out := BulkResult{DeviceID: d.ID, DeviceName: d.Name, CommandID: rec.ID}

	if err := o.store.MarkCommandRunning(ctx, rec.ID); err != nil {
		o.logger.WithField("command_id", rec.ID).WithError(err).Error("failed to mark command running")
		out.Status = model.CommandStatusFailed
		out.Output = "failed to start command: " + err.Error()
		o.failRecord(ctx, rec, out.Output)
		return out
	}
	rec.Status = model.CommandStatusRunning

	res := o.runner.Execute(ctx, TargetFor(d), rec.Command)
	if err := o.finish(ctx, d, rec, res); err != nil {
		out.Status = model.CommandStatusFailed
		out.Output = err.Error()
		return out
	}

	out.Status = rec.Status
	out.Output = rec.Output
	if rec.Status == model.CommandStatusFailed {
		out.Output = rec.ErrorMessage
	}
	return out
}

// finish classifies res into rec and persists the terminal state
func (o *Orchestrator) finish(ctx context.Context, d *model.Device, rec *model.DeviceCommand, res sshexec.Result) error {
	completed := o.now()
	outcome := store.CommandOutcome{
		ExitStatus:  res.ExitStatus,
		CompletedAt: completed,
	}
	if res.Success {
		outcome.Status = model.CommandStatusCompleted
		outcome.Output = res.Output
	} else {
		outcome.Status = model.CommandStatusFailed
		outcome.ErrorMessage = res.Output
	}

	log := o.logger.WithFields(logrus.Fields{
		"device":     d.Name,
		"command_id": rec.ID,
		"status":     outcome.Status,
		"duration":   res.Duration,
	})
	if res.Err != nil {
		log = log.WithField("stage", res.Err.Stage)
	}

	if err := o.store.FinishCommand(ctx, rec.ID, outcome); err != nil {
		log.WithError(err).Error("failed to persist command outcome")
		// a smaller write may still get the record out of running
		if !errors.Is(err, store.ErrInvalidTransition) {
			o.failRecord(ctx, rec, "failed to persist command outcome: "+err.Error())
		}
		return fmt.Errorf("persist command %d outcome: %w", rec.ID, err)
	}

	rec.Status = outcome.Status
	rec.Output = outcome.Output
	rec.ErrorMessage = outcome.ErrorMessage
	rec.ExitStatus = outcome.ExitStatus
	rec.CompletedAt = &completed

	log.Info("command finished")
	o.publisher.Publish(ws.EventCommandUpdate, rec)
	return nil
}

// failRecord forces an open record into failed
func (o *Orchestrator) failRecord(ctx context.Context, rec *model.DeviceCommand, msg string) {
	if rec.Status.Terminal() {
		return
	}
	completed := o.now()
	err := o.store.FinishCommand(ctx, rec.ID, store.CommandOutcome{
		Status:       model.CommandStatusFailed,
		ErrorMessage: msg,
		CompletedAt:  completed,
	})
	if err != nil {
		if !errors.Is(err, store.ErrInvalidTransition) {
			o.logger.WithField("command_id", rec.ID).WithError(err).Error("failed to mark command failed")
		}
		return
	}
	rec.Status = model.CommandStatusFailed
	rec.ErrorMessage = msg
	rec.CompletedAt = &completed
	o.publisher.Publish(ws.EventCommandUpdate, rec)
}

// FailStale fails pending and running records started more than olderThan
// ago. A restart leaves such records behind: nothing will finish them.
func (o *Orchestrator) FailStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := o.now()
	n, err := o.store.FailStaleCommands(ctx, now.Add(-olderThan), "abandoned: server stopped before the command finished", now)
	if err != nil {
		return 0, fmt.Errorf("fail stale commands: %w", err)
	}
	if n > 0 {
		o.logger.WithField("commands", n).Warn("stale commands marked failed")
	}
	return n, nil
}

// ListCommands returns a device's command history, most recent first
func (o *Orchestrator) ListCommands(ctx context.Context, deviceID int, p store.Page) ([]model.DeviceCommand, error) {
	if _, err := o.loadDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	return o.store.ListCommands(ctx, deviceID, p)
}

func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
