package model

import (
	"time"
)

// BaseModel contains common fields for inventory tables
type BaseModel struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IntPtr returns a pointer to i
func IntPtr(i int) *int {
	return &i
}

// IntVal returns *p, or 0 when p is nil
func IntVal(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
