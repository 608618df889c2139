package model

import "time"

// DeviceConfiguration is a configuration snapshot recorded for a device.
// BackupConfig holds the running config captured just before it was applied.
type DeviceConfiguration struct {
	ID            int       `gorm:"primaryKey;autoIncrement" json:"id"`
	DeviceID      int       `gorm:"not null;index" json:"device_id"`
	ConfigName    string    `gorm:"type:varchar(200);not null" json:"config_name"`
	ConfigContent string    `gorm:"type:text;not null" json:"config_content"`
	BackupConfig  string    `gorm:"type:text" json:"backup_config"`
	AppliedByID   *int      `gorm:"index" json:"applied_by_id"`
	AppliedBy     string    `gorm:"type:varchar(64)" json:"applied_by"`
	AppliedAt     time.Time `gorm:"not null;index" json:"applied_at"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
}

// TableName specifies the table name for DeviceConfiguration model
func (DeviceConfiguration) TableName() string {
	return "device_configurations"
}
