package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"go_netinv/internal/model"
)

// DeviceFilter narrows ListDevices
type DeviceFilter struct {
	DeviceType string
	Status     string
	Vendor     string
	Location   string
	Search     string // name, ip, location or description substring
	Page
}

// ListDevices returns devices ordered by name plus the unpaged total
func (s *Store) ListDevices(ctx context.Context, f DeviceFilter) ([]model.Device, int64, error) {
	q := s.withCtx(ctx).Model(&model.Device{})
	if f.DeviceType != "" {
		q = q.Where("device_type = ?", f.DeviceType)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Vendor != "" {
		q = q.Where("vendor = ?", f.Vendor)
	}
	if f.Location != "" {
		q = q.Where("location = ?", f.Location)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name LIKE ? OR ip_address LIKE ? OR location LIKE ? OR description LIKE ?", like, like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var devices []model.Device
	if err := f.Page.apply(q.Order("name ASC")).Find(&devices).Error; err != nil {
		return nil, 0, err
	}
	return devices, total, nil
}

// AllDevices returns every device ordered by name
func (s *Store) AllDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.withCtx(ctx).Order("name ASC").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// GetDevice loads a device by id
func (s *Store) GetDevice(ctx context.Context, id int) (*model.Device, error) {
	var d model.Device
	if err := s.withCtx(ctx).First(&d, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// GetDevicesByIDs loads the devices that exist among ids, in no particular order
func (s *Store) GetDevicesByIDs(ctx context.Context, ids []int) ([]model.Device, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var devices []model.Device
	if err := s.withCtx(ctx).Where("id IN ?", ids).Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// DeviceNameExists reports whether another device already uses name
func (s *Store) DeviceNameExists(ctx context.Context, name string, exceptID int) (bool, error) {
	var count int64
	q := s.withCtx(ctx).Model(&model.Device{}).Where("name = ?", name)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateDevice inserts d; a taken name yields ErrDuplicate
func (s *Store) CreateDevice(ctx context.Context, d *model.Device) error {
	exists, err := s.DeviceNameExists(ctx, d.Name, 0)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("device %q: %w", d.Name, ErrDuplicate)
	}
	if d.Status == "" {
		d.Status = model.DeviceStatusOffline
	}
	if d.SSHPort == 0 {
		d.SSHPort = model.DefaultSSHPort
	}
	return s.withCtx(ctx).Create(d).Error
}

// UpdateDevice applies a partial update and returns the reloaded device
func (s *Store) UpdateDevice(ctx context.Context, id int, updates map[string]interface{}) (*model.Device, error) {
	if name, ok := updates["name"].(string); ok {
		exists, err := s.DeviceNameExists(ctx, name, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("device %q: %w", name, ErrDuplicate)
		}
	}

	if len(updates) > 0 {
		res := s.withCtx(ctx).Model(&model.Device{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return s.GetDevice(ctx, id)
}

// DeleteDevices removes devices with their commands and configurations
func (s *Store) DeleteDevices(ctx context.Context, ids []int) (int64, error) {
	var deleted int64
	err := s.withCtx(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("device_id IN ?", ids).Delete(&model.DeviceCommand{}).Error; err != nil {
			return err
		}
		if err := tx.Where("device_id IN ?", ids).Delete(&model.DeviceConfiguration{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&model.Device{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

var adminOnlyStatuses = stringsOf(model.AdminOnlyStatuses)

// RecordObservation stamps last_seen and writes derived unless the stored
// status is admin-only. The status check happens in the UPDATE itself so a
// concurrent switch to maintenance is never overwritten. Returns whether the
// status was written.
func (s *Store) RecordObservation(ctx context.Context, id int, derived model.DeviceStatus, seen time.Time) (bool, error) {
	res := s.withCtx(ctx).Model(&model.Device{}).
		Where("id = ? AND status NOT IN ?", id, adminOnlyStatuses).
		Updates(map[string]interface{}{"status": derived, "last_seen": seen})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	res = s.withCtx(ctx).Model(&model.Device{}).Where("id = ?", id).Update("last_seen", seen)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

// RecordDiscovery stores the SNMP system description
func (s *Store) RecordDiscovery(ctx context.Context, id int, sysDescr string, at time.Time) error {
	res := s.withCtx(ctx).Model(&model.Device{}).Where("id = ?", id).
		Updates(map[string]interface{}{"sys_descr": sysDescr, "discovered_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GroupCount is one bucket of a GROUP BY count
type GroupCount struct {
	Key   string `gorm:"column:k"`
	Count int64  `gorm:"column:c"`
}

var groupableColumns = map[string]bool{
	"status":      true,
	"device_type": true,
	"vendor":      true,
	"location":    true,
}

// CountDevicesBy counts devices grouped by column, empty values excluded
func (s *Store) CountDevicesBy(ctx context.Context, column string) (map[string]int64, error) {
	if !groupableColumns[column] {
		return nil, fmt.Errorf("cannot group devices by %q", column)
	}
	var rows []GroupCount
	err := s.withCtx(ctx).Model(&model.Device{}).
		Select(column + " AS k, COUNT(*) AS c").
		Where(column + " <> ''").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Count
	}
	return out, nil
}

// CountDevices returns the number of devices
func (s *Store) CountDevices(ctx context.Context) (int64, error) {
	var total int64
	err := s.withCtx(ctx).Model(&model.Device{}).Count(&total).Error
	return total, err
}
