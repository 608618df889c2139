// Package devicehealth derives device liveness from network probes and keeps
// the stored status in line with it.
package devicehealth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"go_netinv/internal/fanout"
	"go_netinv/internal/model"
	"go_netinv/internal/probe"
	"go_netinv/internal/store"
	"go_netinv/internal/util"
	"go_netinv/internal/ws"
)

var (
	// ErrDeviceNotFound is returned for an unknown device id
	ErrDeviceNotFound = fmt.Errorf("device %w", store.ErrNotFound)
	// ErrReconcileInProgress is returned when another run holds the lock
	ErrReconcileInProgress = errors.New("device status update already in progress")
)

const lockName = "reconcile"

// Prober is the subset of probe.Prober used here
type Prober interface {
	Probe(ctx context.Context, address string) probe.Liveness
	ProbePort(ctx context.Context, address string, port int, timeout time.Duration) probe.PortState
}

// Store is the persistence the reconciler needs
type Store interface {
	GetDevice(ctx context.Context, id int) (*model.Device, error)
	AllDevices(ctx context.Context) ([]model.Device, error)
	RecordObservation(ctx context.Context, id int, derived model.DeviceStatus, seen time.Time) (bool, error)
	CountDevices(ctx context.Context) (int64, error)
	CountDevicesBy(ctx context.Context, column string) (map[string]int64, error)
}

// StatusCache stores observations and guards overlapping runs.
// *cache.StatusCache implements it, including when redis is disabled.
type StatusCache interface {
	PutObservation(ctx context.Context, deviceID int, v interface{}) error
	GetObservation(ctx context.Context, deviceID int, out interface{}) (bool, error)
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

// Observation is what one reconciliation saw and did for a device.
// Status is the probe-derived verdict; Applied tells whether it was written
// (false when the stored status is maintenance or error).
type Observation struct {
	DeviceID         int                `json:"device_id"`
	DeviceName       string             `json:"device_name"`
	IPAddress        string             `json:"ip_address"`
	Reachable        bool               `json:"reachable"`
	ServiceReachable bool               `json:"service_reachable"`
	Status           model.DeviceStatus `json:"status"`
	PreviousStatus   model.DeviceStatus `json:"previous_status"`
	Applied          bool               `json:"applied"`
	ObservedAt       time.Time          `json:"observed_at"`
	Error            string             `json:"error,omitempty"`
}

// Changed reports whether the stored status was actually moved
func (o Observation) Changed() bool {
	return o.Applied && o.Status != o.PreviousStatus
}

// Options tunes a Reconciler
type Options struct {
	LockTTL time.Duration
	Now     func() time.Time
}

// Reconciler owns device status derivation
type Reconciler struct {
	store     Store
	prober    Prober
	pool      *fanout.Pool
	cache     StatusCache
	publisher ws.Publisher
	lockTTL   time.Duration
	now       func() time.Time
	logger    *logrus.Entry
}

// NewReconciler wires a Reconciler. cache and publisher may be nil.
func NewReconciler(st Store, prober Prober, pool *fanout.Pool, cache StatusCache, publisher ws.Publisher, opts Options) *Reconciler {
	if publisher == nil {
		publisher = ws.NopPublisher{}
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{
		store:     st,
		prober:    prober,
		pool:      pool,
		cache:     cache,
		publisher: publisher,
		lockTTL:   opts.LockTTL,
		now:       opts.Now,
		logger:    util.WithComponent("reconciler"),
	}
}

// Derive maps probe results to a status: no echo reply or a closed
// management port means offline.
func Derive(live probe.Liveness, port probe.PortState) model.DeviceStatus {
	if live.Reachable && port.Open {
		return model.DeviceStatusOnline
	}
	return model.DeviceStatusOffline
}

// Reconcile probes one device, persists the derived status (unless the stored
// one is admin-only) and stamps last_seen.
func (r *Reconciler) Reconcile(ctx context.Context, d *model.Device) Observation {
	log := r.logger.WithFields(logrus.Fields{"device": d.Name, "device_id": d.ID})

	obs := Observation{
		DeviceID:       d.ID,
		DeviceName:     d.Name,
		IPAddress:      d.IPAddress,
		PreviousStatus: d.Status,
	}

	live := r.prober.Probe(ctx, d.IPAddress)
	var port probe.PortState
	if live.Reachable {
		port = r.prober.ProbePort(ctx, d.IPAddress, d.Port(), 0)
		if port.Err != nil {
			log.WithError(port.Err).Debug("management port closed")
			obs.Error = port.Err.Error()
		}
	} else if live.Err != nil {
		log.WithError(live.Err).Debug("icmp probe failed")
		obs.Error = live.Err.Error()
	}

	obs.Reachable = live.Reachable
	obs.ServiceReachable = port.Open
	obs.Status = Derive(live, port)

	r.record(ctx, &obs, log)
	return obs
}

// record persists, caches and publishes an observation
func (r *Reconciler) record(ctx context.Context, obs *Observation, log *logrus.Entry) {
	obs.ObservedAt = r.now()

	applied, err := r.store.RecordObservation(ctx, obs.DeviceID, obs.Status, obs.ObservedAt)
	if err != nil {
		log.WithError(err).Error("failed to persist observation")
		obs.Error = joinErr(obs.Error, "persist: "+err.Error())
		return
	}
	obs.Applied = applied
	if !applied && obs.PreviousStatus.AdminOnly() {
		log.WithField("status", obs.PreviousStatus).Debug("admin-held status kept")
	} else if !applied {
		// switched to an admin-held status while the probe ran
		log.Debug("status changed by an operator during reconcile, kept")
	}

	if obs.Changed() {
		log.WithFields(logrus.Fields{"from": obs.PreviousStatus, "to": obs.Status}).Info("device status changed")
		r.publisher.Publish(ws.EventDeviceStatus, *obs)
	}

	if r.cache != nil {
		if err := r.cache.PutObservation(ctx, obs.DeviceID, obs); err != nil {
			log.WithError(err).Warn("failed to cache observation")
		}
	}
}

// ReconcileAll reconciles every device on the pool. A failing or panicking
// device is degraded to offline without affecting the others; only failing
// to start the run returns an error.
func (r *Reconciler) ReconcileAll(ctx context.Context) ([]Observation, error) {
	start := time.Now()

	release := func() {}
	if r.cache != nil {
		rel, ok, err := r.cache.TryLock(ctx, lockName, r.lockTTL)
		switch {
		case err != nil:
			// redis trouble must not stop status updates
			r.logger.WithError(err).Warn("reconcile lock unavailable, running unlocked")
		case !ok:
			return nil, ErrReconcileInProgress
		default:
			release = rel
		}
	}
	defer release()

	devices, err := r.store.AllDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	// per-device work outlives a cancelled caller; each probe has its own timeout
	taskCtx := context.WithoutCancel(ctx)

	observations := make([]Observation, len(devices))
	errs := r.pool.Map(len(devices), func(i int) error {
		observations[i] = r.Reconcile(taskCtx, &devices[i])
		return nil
	})
	for i, err := range errs {
		if err != nil {
			observations[i] = r.degrade(taskCtx, &devices[i], err)
		}
	}

	r.logSummary(observations, time.Since(start))
	return observations, nil
}

// degrade records a device whose reconciliation blew up as offline
func (r *Reconciler) degrade(ctx context.Context, d *model.Device, cause error) Observation {
	log := r.logger.WithFields(logrus.Fields{"device": d.Name, "device_id": d.ID})
	log.WithError(cause).Error("reconcile task failed, marking offline")

	obs := Observation{
		DeviceID:       d.ID,
		DeviceName:     d.Name,
		IPAddress:      d.IPAddress,
		Status:         model.DeviceStatusOffline,
		PreviousStatus: d.Status,
		Error:          cause.Error(),
	}
	r.record(ctx, &obs, log)
	return obs
}

func (r *Reconciler) logSummary(obs []Observation, took time.Duration) {
	var online, changed, held int
	for _, o := range obs {
		if o.Status == model.DeviceStatusOnline {
			online++
		}
		if o.Changed() {
			changed++
		}
		if !o.Applied {
			held++
		}
	}
	r.logger.WithFields(logrus.Fields{
		"devices":  len(obs),
		"online":   online,
		"offline":  len(obs) - online,
		"changed":  changed,
		"held":     held,
		"duration": took.Round(time.Millisecond),
	}).Info("device status reconciliation finished")
}

func joinErr(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
