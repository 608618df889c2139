package model

import "time"

// CommandStatus is the lifecycle state of a DeviceCommand
type CommandStatus string

const (
	CommandStatusPending   CommandStatus = "pending"
	CommandStatusRunning   CommandStatus = "running"
	CommandStatusCompleted CommandStatus = "completed"
	CommandStatusFailed    CommandStatus = "failed"
)

// OpenCommandStatuses may still move to completed or failed
var OpenCommandStatuses = []CommandStatus{CommandStatusPending, CommandStatusRunning}

// Terminal reports whether no further transition is allowed
func (s CommandStatus) Terminal() bool {
	for _, o := range OpenCommandStatuses {
		if s == o {
			return false
		}
	}
	return true
}

// DeviceCommand records one command run on one device.
// pending -> running -> completed|failed; terminal rows are never rewritten.
type DeviceCommand struct {
	ID           int           `gorm:"primaryKey;autoIncrement" json:"id"`
	DeviceID     int           `gorm:"not null;index" json:"device_id"`
	BatchID      string        `gorm:"type:varchar(36);index" json:"batch_id"`
	Command      string        `gorm:"type:text;not null" json:"command"`
	Output       string        `gorm:"type:text" json:"output"`
	ErrorMessage string        `gorm:"type:text" json:"error_message"`
	ExitStatus   *int          `json:"exit_status"`
	Status       CommandStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ExecutedByID *int          `gorm:"index" json:"executed_by_id"`
	ExecutedBy   string        `gorm:"type:varchar(64)" json:"executed_by"`
	ExecutedAt   time.Time     `gorm:"not null;index" json:"executed_at"`
	CompletedAt  *time.Time    `json:"completed_at"`
}

// TableName specifies the table name for DeviceCommand model
func (DeviceCommand) TableName() string {
	return "device_commands"
}
