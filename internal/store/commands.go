package store

import (
	"context"
	"time"

	"go_netinv/internal/model"
)

// CreateCommand inserts a command record
func (s *Store) CreateCommand(ctx context.Context, c *model.DeviceCommand) error {
	if c.ExecutedAt.IsZero() {
		c.ExecutedAt = time.Now()
	}
	if c.Status == "" {
		c.Status = model.CommandStatusPending
	}
	return s.withCtx(ctx).Create(c).Error
}

// MarkCommandRunning moves a pending command to running
func (s *Store) MarkCommandRunning(ctx context.Context, id int) error {
	res := s.withCtx(ctx).Model(&model.DeviceCommand{}).
		Where("id = ? AND status = ?", id, model.CommandStatusPending).
		Update("status", model.CommandStatusRunning)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// CommandOutcome is the terminal state written by FinishCommand
type CommandOutcome struct {
	Status       model.CommandStatus
	Output       string
	ErrorMessage string
	ExitStatus   *int
	CompletedAt  time.Time
}

var openCommandStatuses = stringsOf(model.OpenCommandStatuses)

// FinishCommand writes a terminal outcome. Already terminal records are left
// untouched and yield ErrInvalidTransition.
func (s *Store) FinishCommand(ctx context.Context, id int, out CommandOutcome) error {
	res := s.withCtx(ctx).Model(&model.DeviceCommand{}).
		Where("id = ? AND status IN ?", id, openCommandStatuses).
		Updates(map[string]interface{}{
			"status":        out.Status,
			"output":        out.Output,
			"error_message": out.ErrorMessage,
			"exit_status":   out.ExitStatus,
			"completed_at":  out.CompletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// FailStaleCommands fails every pending or running command executed before
// cutoff and returns how many were changed
func (s *Store) FailStaleCommands(ctx context.Context, cutoff time.Time, msg string, at time.Time) (int64, error) {
	res := s.withCtx(ctx).Model(&model.DeviceCommand{}).
		Where("status IN ? AND executed_at < ?", openCommandStatuses, cutoff).
		Updates(map[string]interface{}{
			"status":        model.CommandStatusFailed,
			"error_message": msg,
			"completed_at":  at,
		})
	return res.RowsAffected, res.Error
}

// GetCommand loads a command by id
func (s *Store) GetCommand(ctx context.Context, id int) (*model.DeviceCommand, error) {
	var c model.DeviceCommand
	if err := s.withCtx(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListCommands returns a device's commands, most recent first
func (s *Store) ListCommands(ctx context.Context, deviceID int, p Page) ([]model.DeviceCommand, error) {
	var cmds []model.DeviceCommand
	q := s.withCtx(ctx).Where("device_id = ?", deviceID).Order("executed_at DESC, id DESC")
	if err := p.apply(q).Find(&cmds).Error; err != nil {
		return nil, err
	}
	return cmds, nil
}
