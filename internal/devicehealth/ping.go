package devicehealth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"go_netinv/internal/model"
	"go_netinv/internal/store"
	"go_netinv/internal/ws"
)

// PingResult is the answer to a single-device reachability check
type PingResult struct {
	DeviceID    int       `json:"device_id"`
	DeviceName  string    `json:"device_name"`
	IPAddress   string    `json:"ip_address"`
	IsReachable bool      `json:"is_reachable"`
	Timestamp   time.Time `json:"timestamp"`
}

// Ping sends one ICMP echo to the device. A reply marks it online and stamps
// last_seen; no reply changes nothing. Admin-held statuses are kept.
func (r *Reconciler) Ping(ctx context.Context, deviceID int) (PingResult, error) {
	d, err := r.store.GetDevice(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return PingResult{}, fmt.Errorf("%w: id %d", ErrDeviceNotFound, deviceID)
		}
		return PingResult{}, fmt.Errorf("load device %d: %w", deviceID, err)
	}

	log := r.logger.WithFields(logrus.Fields{"device": d.Name, "device_id": d.ID})
	live := r.prober.Probe(ctx, d.IPAddress)
	now := r.now()

	res := PingResult{
		DeviceID:    d.ID,
		DeviceName:  d.Name,
		IPAddress:   d.IPAddress,
		IsReachable: live.Reachable,
		Timestamp:   now,
	}
	if !live.Reachable {
		if live.Err != nil {
			log.WithError(live.Err).Debug("ping failed")
		}
		return res, nil
	}

	applied, err := r.store.RecordObservation(ctx, d.ID, model.DeviceStatusOnline, now)
	if err != nil {
		return res, fmt.Errorf("record ping for device %d: %w", d.ID, err)
	}
	if applied && d.Status != model.DeviceStatusOnline {
		log.WithField("from", d.Status).Info("device answered ping, marked online")
		r.publisher.Publish(ws.EventDeviceStatus, Observation{
			DeviceID:       d.ID,
			DeviceName:     d.Name,
			IPAddress:      d.IPAddress,
			Reachable:      true,
			Status:         model.DeviceStatusOnline,
			PreviousStatus: d.Status,
			Applied:        true,
			ObservedAt:     now,
		})
	}
	return res, nil
}
