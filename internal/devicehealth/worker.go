package devicehealth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"go_netinv/internal/util"
)

// Worker runs ReconcileAll on a cron schedule
type Worker struct {
	cron       *cron.Cron
	reconciler *Reconciler
	timeout    time.Duration
	logger     *logrus.Entry
}

// NewWorker schedules r. schedule accepts cron expressions and descriptors
// such as "@every 5m". timeout bounds taking the run lock and loading the
// device list; once started, per-device probes run to their own timeouts.
func NewWorker(r *Reconciler, schedule string, timeout time.Duration) (*Worker, error) {
	logger := util.WithComponent("reconcile-worker")
	cronLogger := cron.PrintfLogger(logger)

	w := &Worker{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		)),
		reconciler: r,
		timeout:    timeout,
		logger:     logger,
	}
	if _, err := w.cron.AddFunc(schedule, w.run); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	w.logger = logger.WithField("schedule", schedule)
	return w, nil
}

// Start begins the scheduled runs
func (w *Worker) Start() {
	w.logger.Info("starting reconcile worker")
	w.cron.Start()
}

// Stop stops scheduling and waits for a running reconciliation to finish
func (w *Worker) Stop() {
	<-w.cron.Stop().Done()
	w.logger.Info("reconcile worker stopped")
}

func (w *Worker) run() {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	obs, err := w.reconciler.ReconcileAll(ctx)
	switch {
	case errors.Is(err, ErrReconcileInProgress):
		w.logger.Info("reconciliation already running elsewhere, skipped")
	case err != nil:
		w.logger.WithError(err).Error("scheduled reconciliation failed")
	default:
		w.logger.WithField("devices", len(obs)).Debug("scheduled reconciliation done")
	}
}
