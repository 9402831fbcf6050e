package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Cyclone1070/termpilot/internal/config"
	"github.com/Cyclone1070/termpilot/internal/policy"
	"github.com/sirupsen/logrus"
)

// Exit code conventions shared with every consumer of an Outcome.
const (
	ExitSuccess   = 0
	ExitFailure   = 1
	ExitTimeout   = 124
	ExitInterrupt = 130
)

// Exit codes a POSIX shell uses for "cannot execute" and "not found".
const (
	shellNotExecutable = 126
	shellNotFound      = 127
)

// State is the terminal state of an execution.
type State string

const (
	StateClosed      State = "closed"
	StateTimedOut    State = "timed_out"
	StateInterrupted State = "interrupted"
	StateSpawnError  State = "spawn_error"
)

// Outcome is the result of one execution. ExitCode always follows the
// conventions above, so callers can branch on it alone.
type Outcome struct {
	Stdout      string
	Stderr      string
	ExitCode    int
	Interrupted bool
	TimedOut    bool
	Truncated   bool
	State       State
	Err         error // *SpawnError when State is StateSpawnError
	Duration    time.Duration
}

type sig int

const (
	sigInterrupt sig = iota
	sigKill
)

// Executor runs shell command lines. It is safe for sequential use; the broker
// rejects overlapping executions from taking the interrupt.
type Executor struct {
	shell          string
	defaultTimeout time.Duration
	maxOutputBytes int64
	interruptGrace time.Duration
	waitDelay      time.Duration

	broker *Broker
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    logrus.FieldLogger
}

// New creates an Executor from config. broker may be nil, in which case
// only ctx cancellation can interrupt a command.
func New(cfg *config.Config, broker *Broker, log logrus.FieldLogger) *Executor {
	if cfg == nil {
		panic("cfg is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	ec := cfg.Executor
	return &Executor{
		shell:          ec.Shell,
		defaultTimeout: time.Duration(ec.DefaultTimeoutMs) * time.Millisecond,
		maxOutputBytes: ec.MaxOutputBytes,
		interruptGrace: time.Duration(ec.InterruptGraceMs) * time.Millisecond,
		waitDelay:      time.Duration(ec.WaitDelayMs) * time.Millisecond,
		broker:         broker,
		stdin:          os.Stdin,
		stdout:         os.Stdout,
		stderr:         os.Stderr,
		log:            log,
	}
}

// SetStreams replaces the parent streams used for live forwarding (captured
// mode) and direct sharing (interactive mode).
func (e *Executor) SetStreams(stdin io.Reader, stdout, stderr io.Writer) {
	e.stdin, e.stdout, e.stderr = stdin, stdout, stderr
}

// Execute runs req.Text through the shell and returns its outcome.
// Lifecycle failures are folded into the Outcome; Execute never fails.
func (e *Executor) Execute(ctx context.Context, req policy.Request) Outcome {
	start := time.Now()
	text := strings.TrimSpace(req.Text)
	log := e.log.WithFields(logrus.Fields{"command": text, "interactive": req.Interactive})

	if text == "" {
		return spawnFailure(text, "start", policy.ErrEmptyCommand, "", start)
	}
	if err := ctx.Err(); err != nil {
		return spawnFailure(text, "start", err, "", start)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}

	cmd := exec.Command(e.shell, "-c", text)
	cmd.Dir = req.WorkingDir
	cmd.WaitDelay = e.waitDelay

	var stdoutC, stderrC *collector
	if req.Interactive {
		cmd.Stdin = e.stdin
		cmd.Stdout = e.stdout
		cmd.Stderr = e.stderr
	} else {
		stdoutC = newCollector(e.maxOutputBytes, binarySampleSize)
		stderrC = newCollector(e.maxOutputBytes, binarySampleSize)
		cmd.Stdout = io.MultiWriter(stdoutC, e.stdout)
		cmd.Stderr = io.MultiWriter(stderrC, e.stderr)
	}
	restoreTerminal := configureProcess(cmd, req.Interactive, e.stdin)

	var lease *Lease
	if e.broker != nil {
		l, err := e.broker.Acquire()
		if err != nil {
			log.WithError(err).Warn("running without interrupt handling")
		} else {
			lease = l
		}
	}

	if err := cmd.Start(); err != nil {
		restoreTerminal()
		lease.Release()
		log.WithError(err).Debug("spawn failed")
		return spawnFailure(text, "start", err, "", start)
	}

	run := &execution{
		cmd:   cmd,
		grace: e.interruptGrace,
		log:   log,
	}

	waitCh := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		run.finish(StateClosed)
		waitCh <- err
	}()

	var timer *time.Timer
	if timeout > 0 {
		timer = time.AfterFunc(timeout, run.onTimeout)
	}

	stop := make(chan struct{})
	var watchers sync.WaitGroup
	watchers.Add(1)
	go func() {
		defer watchers.Done()
		var leaseC <-chan struct{}
		if lease != nil {
			leaseC = lease.C
		}
		run.watch(ctx.Done(), leaseC, stop)
	}()

	waitErr := <-waitCh

	// Tear down every handler registered for this execution before returning.
	close(stop)
	watchers.Wait()
	if timer != nil {
		timer.Stop()
	}
	run.stopGrace()
	restoreTerminal()
	lease.Release()

	out := Outcome{State: run.State(), Duration: time.Since(start)}
	code := exitCode(cmd, waitErr)

	switch out.State {
	case StateTimedOut:
		out.TimedOut = true
		out.ExitCode = ExitTimeout
	case StateInterrupted:
		out.Interrupted = true
		out.ExitCode = ExitInterrupt
	default:
		out.ExitCode = code
	}

	if !req.Interactive {
		out.Stdout = stdoutC.String()
		out.Stderr = stderrC.String()
		out.Truncated = stdoutC.Truncated() || stderrC.Truncated()
	}

	if out.State == StateClosed && (code == shellNotFound || code == shellNotExecutable) {
		out.State = StateSpawnError
		out.ExitCode = ExitFailure
		out.Err = &SpawnError{Cmd: text, Stage: "exec", Cause: fmt.Errorf("shell exit status %d", code)}
		if out.Stderr == "" {
			out.Stderr = out.Err.Error()
		}
	}

	if req.Interactive {
		out.Stdout = fmt.Sprintf("[interactive command; output not captured; exit code %d]", out.ExitCode)
	}

	log.WithFields(logrus.Fields{
		"state":     out.State,
		"exit_code": out.ExitCode,
		"duration":  out.Duration,
	}).Debug("command finished")

	return out
}

func spawnFailure(text, stage string, cause error, stdout string, start time.Time) Outcome {
	err := &SpawnError{Cmd: text, Stage: stage, Cause: cause}
	return Outcome{
		Stdout:   stdout,
		Stderr:   err.Error(),
		ExitCode: ExitFailure,
		State:    StateSpawnError,
		Err:      err,
		Duration: time.Since(start),
	}
}

func exitCode(cmd *exec.Cmd, err error) int {
	state := cmd.ProcessState
	if code, ok := signaledExitCode(state); ok {
		return code
	}
	if state != nil && state.ExitCode() >= 0 {
		return state.ExitCode()
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) && ee.ExitCode() >= 0 {
		return ee.ExitCode()
	}
	if err != nil {
		return ExitFailure
	}
	return ExitSuccess
}

// execution tracks one running child. finished is the single guard every
// terminal path goes through; whichever path sets it decides the state.
type execution struct {
	cmd   *exec.Cmd
	grace time.Duration
	log   logrus.FieldLogger

	finished atomic.Bool
	state    atomic.Value // State

	mu         sync.Mutex
	graceTimer *time.Timer
}

func (r *execution) finish(s State) bool {
	if !r.finished.CompareAndSwap(false, true) {
		return false
	}
	r.state.Store(s)
	return true
}

func (r *execution) State() State {
	if s, ok := r.state.Load().(State); ok {
		return s
	}
	return StateClosed
}

func (r *execution) signal(s sig) {
	if err := signalProcess(r.cmd.Process, s); err != nil && !errors.Is(err, os.ErrProcessDone) {
		r.log.WithError(err).Debug("signal delivery failed")
	}
}

// onTimeout kills the child. When an interrupt already decided the state the
// kill still goes out.
func (r *execution) onTimeout() {
	if r.finish(StateTimedOut) {
		r.log.Debug("timeout reached, killing")
		r.signal(sigKill)
		return
	}
	if r.State() == StateInterrupted {
		r.log.Debug("timeout reached while interrupted, killing")
		r.signal(sigKill)
	}
}

// onInterrupt forwards the interrupt and arms a kill after the grace period.
// A repeat while waiting escalates straight to kill.
func (r *execution) onInterrupt() {
	if r.finish(StateInterrupted) {
		r.log.Debug("interrupt received, forwarding")
		r.signal(sigInterrupt)
		r.mu.Lock()
		r.graceTimer = time.AfterFunc(r.grace, func() { r.signal(sigKill) })
		r.mu.Unlock()
		return
	}
	if r.State() == StateInterrupted {
		r.signal(sigKill)
	}
}

func (r *execution) stopGrace() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.graceTimer != nil {
		r.graceTimer.Stop()
	}
}

func (r *execution) watch(ctxDone <-chan struct{}, interrupts <-chan struct{}, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-interrupts:
			r.onInterrupt()
		case <-ctxDone:
			ctxDone = nil
			r.onInterrupt()
		}
	}
}
