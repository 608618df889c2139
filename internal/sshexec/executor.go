// Package sshexec runs one command on a device over SSH and classifies the
// outcome.
package sshexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"go_netinv/internal/util"
)

// Stage is the step at which an execution failed
type Stage string

const (
	StageDial      Stage = "dial"
	StageHandshake Stage = "handshake" // includes authentication and host key checks
	StageSession   Stage = "session"
	StageRun       Stage = "run"
	StageTimeout   Stage = "timeout"
)

// ExecutionFailure is a transport-level failure talking to the device
type ExecutionFailure struct {
	Stage Stage
	Addr  string
	Err   error
}

func (f *ExecutionFailure) Error() string {
	return fmt.Sprintf("ssh %s %s: %v", f.Stage, f.Addr, f.Err)
}

func (f *ExecutionFailure) Unwrap() error {
	return f.Err
}

// Target identifies where and as whom to run a command
type Target struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Addr returns host:port, defaulting the port to 22
func (t Target) Addr() string {
	port := t.Port
	if port <= 0 {
		port = 22
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

// Result is the outcome of one command.
//
// Success is decided by stderr alone: any stderr output means failure and
// Output carries stderr; otherwise Output carries stdout. A transport failure
// sets Err and Output carries its text. ExitStatus is informational.
type Result struct {
	Success    bool
	Output     string
	Stdout     string
	Stderr     string
	ExitStatus *int
	Duration   time.Duration
	Err        *ExecutionFailure
}

// Options configures an Executor
type Options struct {
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
	KnownHostsFile string // empty = accept any host key
}

// Executor runs commands over SSH. It is safe for concurrent use.
type Executor struct {
	opts            Options
	hostKeyCallback ssh.HostKeyCallback
	logger          *logrus.Entry
}

// New creates an Executor. When KnownHostsFile is set, host keys are checked
// against it and the file must exist.
func New(opts Options) (*Executor, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = 60 * time.Second
	}

	e := &Executor{opts: opts, logger: util.WithComponent("sshexec")}
	if opts.KnownHostsFile != "" {
		cb, err := knownhosts.New(opts.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known_hosts %s: %w", opts.KnownHostsFile, err)
		}
		e.hostKeyCallback = cb
	} else {
		e.logger.Warn("SSH host key verification disabled (InsecureIgnoreHostKey), set SSH_KNOWN_HOSTS to enable it")
		e.hostKeyCallback = ssh.InsecureIgnoreHostKey()
	}
	return e, nil
}

func (e *Executor) clientConfig(t Target) *ssh.ClientConfig {
	password := t.Password
	return &ssh.ClientConfig{
		User: t.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			// many network OSes only offer keyboard-interactive
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: e.hostKeyCallback,
		Timeout:         e.opts.ConnectTimeout,
	}
}

// Execute runs command on t. It never returns an error and never panics:
// every failure is folded into a failed Result.
func (e *Executor) Execute(ctx context.Context, t Target, command string) (res Result) {
	start := time.Now()
	addr := t.Addr()
	log := e.logger.WithField("addr", addr)

	fail := func(stage Stage, err error) Result {
		f := &ExecutionFailure{Stage: stage, Addr: addr, Err: err}
		log.WithField("stage", stage).WithError(err).Debug("ssh execution failed")
		return Result{Output: f.Error(), Err: f, Duration: time.Since(start)}
	}
	defer func() {
		if r := recover(); r != nil {
			res = fail(StageRun, fmt.Errorf("panic: %v", r))
		}
	}()

	client, failure := e.connect(ctx, t, addr)
	if failure != nil {
		return fail(failure.Stage, failure.Err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fail(StageSession, err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Start(command); err != nil {
		return fail(StageRun, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.opts.CommandTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	var waitErr error
	select {
	case <-runCtx.Done():
		session.Signal(ssh.SIGKILL)
		session.Close()
		<-done
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fail(StageTimeout, fmt.Errorf("command did not finish within %s", e.opts.CommandTimeout))
		}
		return fail(StageRun, runCtx.Err())
	case waitErr = <-done:
	}

	var exitStatus *int
	var exitErr *ssh.ExitError
	var missingErr *ssh.ExitMissingError
	switch {
	case waitErr == nil:
		zero := 0
		exitStatus = &zero
	case errors.As(waitErr, &exitErr):
		code := exitErr.ExitStatus()
		exitStatus = &code
	case errors.As(waitErr, &missingErr):
		// device closed the channel without reporting a status
	default:
		return fail(StageRun, waitErr)
	}

	res = Result{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		ExitStatus: exitStatus,
		Duration:   time.Since(start),
	}
	if res.Stderr != "" {
		res.Output = res.Stderr
	} else {
		res.Success = true
		res.Output = res.Stdout
	}

	log.WithFields(logrus.Fields{
		"success":     res.Success,
		"exit_status": exitStatus,
		"duration":    res.Duration,
	}).Debug("ssh command finished")
	return res
}

// connect dials and performs the SSH handshake, both bounded by the connect
// timeout and by ctx.
func (e *Executor) connect(ctx context.Context, t Target, addr string) (*ssh.Client, *ExecutionFailure) {
	dialer := net.Dialer{Timeout: e.opts.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ExecutionFailure{Stage: StageDial, Addr: addr, Err: err}
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetDeadline(time.Now().Add(e.opts.ConnectTimeout))
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, e.clientConfig(t))
	if err != nil {
		conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		return nil, &ExecutionFailure{Stage: StageHandshake, Addr: addr, Err: err}
	}
	conn.SetDeadline(time.Time{})

	return ssh.NewClient(c, chans, reqs), nil
}
