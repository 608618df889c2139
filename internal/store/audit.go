package store

import (
	"context"
	"time"

	"go_netinv/internal/model"
)

// CreateAuditLog inserts an audit entry
func (s *Store) CreateAuditLog(ctx context.Context, entry *model.AuditLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	return s.withCtx(ctx).Create(entry).Error
}

// AuditFilter narrows ListAuditLogs; nil UserID means every user
type AuditFilter struct {
	UserID *int
	Action string
	Page
}

// ListAuditLogs returns entries newest first plus the unpaged total
func (s *Store) ListAuditLogs(ctx context.Context, f AuditFilter) ([]model.AuditLog, int64, error) {
	q := s.withCtx(ctx).Model(&model.AuditLog{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.AuditLog
	if err := f.Page.apply(q.Order("timestamp DESC, id DESC")).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
