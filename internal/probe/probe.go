// Package probe answers two separate questions about a device: does the
// host answer ICMP echo, and does a given TCP service accept connections.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-ping/ping"
	"github.com/sirupsen/logrus"

	"go_netinv/internal/util"
)

// Failure describes why a probe came back negative
type Failure struct {
	Op      string // icmp | tcp | snmp
	Address string
	Err     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s probe %s: %v", f.Op, f.Address, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Liveness is the result of an ICMP echo
type Liveness struct {
	Reachable bool
	RTT       time.Duration
	Err       *Failure
}

// PortState is the result of a TCP connect
type PortState struct {
	Open bool
	Err  *Failure
}

// Options configures a Prober
type Options struct {
	ICMPTimeout time.Duration
	PortTimeout time.Duration
	Privileged  bool // raw ICMP instead of unprivileged UDP ping
	SNMPPort    int
	SNMPTimeout time.Duration
}

// DefaultOptions match the timeouts used when nothing is configured
func DefaultOptions() Options {
	return Options{
		ICMPTimeout: 5 * time.Second,
		PortTimeout: 5 * time.Second,
		SNMPPort:    161,
		SNMPTimeout: 5 * time.Second,
	}
}

// pinger is the part of *ping.Pinger a probe drives
type pinger interface {
	Run() error
	Stop()
	Statistics() *ping.Statistics
}

// Prober runs reachability probes. It never returns errors: every failure is
// reported as unreachable or closed with a Failure attached.
type Prober struct {
	opts       Options
	privileged atomic.Bool // current ICMP socket mode, flipped once if denied
	modeWarn   sync.Once
	newPinger  func(address string, privileged bool) (pinger, error)
	logger     *logrus.Entry
}

// New creates a Prober
func New(opts Options) *Prober {
	def := DefaultOptions()
	if opts.ICMPTimeout <= 0 {
		opts.ICMPTimeout = def.ICMPTimeout
	}
	if opts.PortTimeout <= 0 {
		opts.PortTimeout = def.PortTimeout
	}
	if opts.SNMPPort <= 0 {
		opts.SNMPPort = def.SNMPPort
	}
	if opts.SNMPTimeout <= 0 {
		opts.SNMPTimeout = def.SNMPTimeout
	}
	p := &Prober{opts: opts, logger: util.WithComponent("probe")}
	p.privileged.Store(opts.Privileged)
	p.newPinger = p.icmpPinger
	return p
}

func (p *Prober) icmpPinger(address string, privileged bool) (pinger, error) {
	pg, err := ping.NewPinger(address)
	if err != nil {
		return nil, err
	}
	pg.Count = 1
	pg.Timeout = p.opts.ICMPTimeout
	pg.SetPrivileged(privileged)
	return pg, nil
}

// Privileged reports the ICMP socket mode probes currently use
func (p *Prober) Privileged() bool {
	return p.privileged.Load()
}

// Probe sends one ICMP echo to address and waits up to the ICMP timeout.
func (p *Prober) Probe(ctx context.Context, address string) (live Liveness) {
	fail := func(err error) Liveness {
		return Liveness{Err: &Failure{Op: "icmp", Address: address, Err: err}}
	}
	defer func() {
		if r := recover(); r != nil {
			live = fail(fmt.Errorf("panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	mode := p.privileged.Load()
	pg, err := p.ping(ctx, address, mode)
	if errors.Is(err, os.ErrPermission) {
		// the kernel refused this socket type; the other one may be allowed
		pg, err = p.ping(ctx, address, !mode)
		if !errors.Is(err, os.ErrPermission) {
			p.privileged.Store(!mode)
		}
		p.modeWarn.Do(func() {
			p.logger.WithFields(logrus.Fields{
				"privileged": mode,
				"fallback":   !mode,
			}).Warn("ICMP socket not permitted, switching ping mode; check net.ipv4.ping_group_range or PROBE_PRIVILEGED")
		})
	}
	if err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	stats := pg.Statistics()
	if stats.PacketsRecv == 0 {
		return fail(fmt.Errorf("no reply within %s", p.opts.ICMPTimeout))
	}
	return Liveness{Reachable: true, RTT: stats.AvgRtt}
}

// ping runs one echo in the given socket mode, stopping early if ctx ends
func (p *Prober) ping(ctx context.Context, address string, privileged bool) (pinger, error) {
	pg, err := p.newPinger(address, privileged)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pg.Stop()
		case <-done:
		}
	}()

	if err := pg.Run(); err != nil {
		return nil, err
	}
	return pg, nil
}

// ProbePort tries a TCP connect to address:port. timeout <= 0 uses the
// configured port timeout.
func (p *Prober) ProbePort(ctx context.Context, address string, port int, timeout time.Duration) PortState {
	if timeout <= 0 {
		timeout = p.opts.PortTimeout
	}
	target := net.JoinHostPort(address, strconv.Itoa(port))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return PortState{Err: &Failure{Op: "tcp", Address: target, Err: err}}
	}
	conn.Close()
	return PortState{Open: true}
}
