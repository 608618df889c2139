package main

import (
	"time"

	"gorm.io/gorm"

	"go_netinv/internal/auth"
	"go_netinv/internal/cache"
	"go_netinv/internal/config"
	"go_netinv/internal/db"
	"go_netinv/internal/devicecmd"
	"go_netinv/internal/devicehealth"
	"go_netinv/internal/fanout"
	"go_netinv/internal/probe"
	"go_netinv/internal/sshexec"
	"go_netinv/internal/store"
	"go_netinv/internal/util"
	"go_netinv/internal/ws"
)

// observations outlive a few reconcile rounds
const observationTTL = 30 * time.Minute

// app holds the wired services shared by the subcommands
type app struct {
	cfg          *config.Config
	db           *gorm.DB
	store        *store.Store
	prober       *probe.Prober
	reconciler   *devicehealth.Reconciler
	orchestrator *devicecmd.Orchestrator
	hub          *ws.Hub
	pools        []*fanout.Pool
}

// openStore connects to the database, migrating when MIGRATE is set
func openStore(cfg *config.Config) (*gorm.DB, *store.Store, error) {
	gdb, err := db.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Migrate {
		if err := db.Migrate(gdb); err != nil {
			db.Close(gdb)
			return nil, nil, err
		}
	}
	return gdb, store.New(gdb), nil
}

// newApp wires the database, redis, probes, SSH and worker pools. With
// realtime set, status and command events go to a socket.io hub.
func newApp(cfg *config.Config, realtime bool) (*app, error) {
	gdb, st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: gdb, store: st}

	var publisher ws.Publisher = ws.NopPublisher{}
	if realtime {
		a.hub = ws.NewHub(st)
		publisher = a.hub
	}

	if err := cache.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		a.Close()
		return nil, err
	}
	auth.InitJWT(cfg.JWT.Secret)

	a.prober = probe.New(probe.Options{
		ICMPTimeout: time.Duration(cfg.Probe.ICMPTimeoutSec) * time.Second,
		PortTimeout: time.Duration(cfg.Probe.PortTimeoutSec) * time.Second,
		Privileged:  cfg.Probe.Privileged,
		SNMPPort:    cfg.SNMP.Port,
		SNMPTimeout: time.Duration(cfg.SNMP.TimeoutSec) * time.Second,
	})

	executor, err := sshexec.New(sshexec.Options{
		ConnectTimeout: time.Duration(cfg.SSH.ConnectTimeoutSec) * time.Second,
		CommandTimeout: time.Duration(cfg.SSH.CommandTimeoutSec) * time.Second,
		KnownHostsFile: cfg.SSH.KnownHosts,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	reconcilePool, err := fanout.New("reconcile", cfg.Reconcile.Concurrency)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.pools = append(a.pools, reconcilePool)

	bulkPool, err := fanout.New("bulk", cfg.Bulk.Concurrency)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.pools = append(a.pools, bulkPool)

	a.reconciler = devicehealth.NewReconciler(st, a.prober, reconcilePool,
		cache.NewStatusCache(cache.Client, observationTTL), publisher,
		devicehealth.Options{LockTTL: a.lockTTL()})
	a.orchestrator = devicecmd.New(st, executor, bulkPool, publisher)
	return a, nil
}

func (a *app) lockTTL() time.Duration {
	return time.Duration(a.cfg.Reconcile.LockTTLSec) * time.Second
}

// staleCommandAge is how old an open command must be before startup treats
// it as abandoned: twice the longest a single SSH command may take
func (a *app) staleCommandAge() time.Duration {
	connect := a.cfg.SSH.ConnectTimeoutSec
	if connect <= 0 {
		connect = 10
	}
	command := a.cfg.SSH.CommandTimeoutSec
	if command <= 0 {
		command = 60
	}
	return 2 * time.Duration(connect+command) * time.Second
}

// Close releases everything newApp opened
func (a *app) Close() {
	for _, p := range a.pools {
		p.Release()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	cache.Close()
	if err := db.Close(a.db); err != nil {
		util.WithComponent("netinv").WithError(err).Warn("failed to close database")
	}
}
