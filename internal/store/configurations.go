package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go_netinv/internal/model"
)

// CreateConfiguration stores cfg as the device's active configuration,
// deactivating any previous active ones in the same transaction.
func (s *Store) CreateConfiguration(ctx context.Context, cfg *model.DeviceConfiguration) error {
	if cfg.AppliedAt.IsZero() {
		cfg.AppliedAt = time.Now()
	}
	cfg.IsActive = true

	return s.withCtx(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.DeviceConfiguration{}).
			Where("device_id = ? AND is_active = ?", cfg.DeviceID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(cfg).Error
	})
}

// ListConfigurations returns a device's configurations, most recent first
func (s *Store) ListConfigurations(ctx context.Context, deviceID int, p Page) ([]model.DeviceConfiguration, error) {
	var cfgs []model.DeviceConfiguration
	q := s.withCtx(ctx).Where("device_id = ?", deviceID).Order("applied_at DESC, id DESC")
	if err := p.apply(q).Find(&cfgs).Error; err != nil {
		return nil, err
	}
	return cfgs, nil
}
