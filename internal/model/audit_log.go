package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditAction is the kind of audited operation
type AuditAction string

const (
	AuditActionLogin   AuditAction = "LOGIN"
	AuditActionLogout  AuditAction = "LOGOUT"
	AuditActionCreate  AuditAction = "CREATE"
	AuditActionUpdate  AuditAction = "UPDATE"
	AuditActionDelete  AuditAction = "DELETE"
	AuditActionExecute AuditAction = "EXECUTE"
)

// AuditLog records a user action
type AuditLog struct {
	ID             int            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         *int           `gorm:"index" json:"user_id"`
	Username       string         `gorm:"type:varchar(64);index" json:"username"`
	Action         AuditAction    `gorm:"type:varchar(20);not null;index" json:"action"`
	ObjectRepr     string         `gorm:"type:varchar(255)" json:"object_repr"`
	Changes        datatypes.JSON `json:"changes"`
	IPAddress      string         `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent      string         `gorm:"type:text" json:"user_agent"`
	Timestamp      time.Time      `gorm:"not null;index" json:"timestamp"`
	AdditionalData datatypes.JSON `json:"additional_data"`
}

// TableName specifies the table name for AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
