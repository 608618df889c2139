package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	v1 "go_netinv/api/v1"
	"go_netinv/internal/devicehealth"
	"go_netinv/internal/util"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, socket.io server and status worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	logger := util.WithComponent("netinv")
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()
	a.hub.Start()

	if _, err := a.orchestrator.FailStale(ctx, a.staleCommandAge()); err != nil {
		logger.WithError(err).Warn("failed to sweep stale commands")
	}

	if cfg.Reconcile.WorkerEnabled {
		worker, err := devicehealth.NewWorker(a.reconciler, cfg.Reconcile.Schedule, a.lockTTL())
		if err != nil {
			return err
		}
		worker.Start()
		defer worker.Stop()
	} else {
		logger.Info("reconcile worker disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	v1.SetupRouter(r, v1.Deps{
		Config:       cfg,
		Store:        a.store,
		Reconciler:   a.reconciler,
		Orchestrator: a.orchestrator,
		Discoverer:   a.prober,
		Hub:          a.hub,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
