package devicehealth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_netinv/internal/model"
	"go_netinv/internal/store"
)

// DeviceStatus is the stored status of a device together with the last
// reconciliation seen for it. LastObservation is nil when nothing is cached.
type DeviceStatus struct {
	DeviceID        int                `json:"device_id"`
	DeviceName      string             `json:"device_name"`
	IPAddress       string             `json:"ip_address"`
	Status          model.DeviceStatus `json:"status"`
	LastSeen        *time.Time         `json:"last_seen"`
	LastObservation *Observation       `json:"last_observation"`
}

// Status returns the device's stored status and its cached observation.
// A cache failure is logged and answered without the observation.
func (r *Reconciler) Status(ctx context.Context, deviceID int) (DeviceStatus, error) {
	d, err := r.store.GetDevice(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return DeviceStatus{}, fmt.Errorf("%w: id %d", ErrDeviceNotFound, deviceID)
		}
		return DeviceStatus{}, fmt.Errorf("load device %d: %w", deviceID, err)
	}

	res := DeviceStatus{
		DeviceID:   d.ID,
		DeviceName: d.Name,
		IPAddress:  d.IPAddress,
		Status:     d.Status,
		LastSeen:   d.LastSeen,
	}
	if r.cache == nil {
		return res, nil
	}

	var obs Observation
	found, err := r.cache.GetObservation(ctx, d.ID, &obs)
	if err != nil {
		r.logger.WithField("device_id", d.ID).WithError(err).Warn("failed to read cached observation")
		return res, nil
	}
	if found {
		res.LastObservation = &obs
	}
	return res, nil
}
