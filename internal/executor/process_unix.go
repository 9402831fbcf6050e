//go:build unix

package executor

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

// configureProcess makes every child the leader of its own process group so
// signals reach the whole tree. An interactive child attached to our terminal
// is also moved to the foreground; the returned func hands the terminal back.
func configureProcess(cmd *exec.Cmd, interactive bool, stdin io.Reader) (restore func()) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if !interactive {
		return func() {}
	}
	fd, ok := foregroundTerminal(stdin)
	if !ok {
		return func() {}
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Foreground: true, Ctty: fd}
	pgrp := unix.Getpgrp()
	return func() {
		// A background group writing the terminal's pgrp gets SIGTTOU.
		signal.Ignore(syscall.SIGTTOU)
		defer signal.Reset(syscall.SIGTTOU)
		_ = unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, pgrp)
	}
}

// foregroundTerminal reports the descriptor of r when r is a terminal whose
// foreground group is ours.
func foregroundTerminal(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok || f == nil || !isatty.IsTerminal(f.Fd()) {
		return 0, false
	}
	fd := int(f.Fd())
	fg, err := unix.IoctlGetInt(fd, unix.TIOCGPGRP)
	if err != nil || fg != unix.Getpgrp() {
		return 0, false
	}
	return fd, true
}

func signalProcess(p *os.Process, s sig) error {
	if p == nil {
		return os.ErrProcessDone
	}
	signum := unix.SIGINT
	if s == sigKill {
		signum = unix.SIGKILL
	}
	if err := unix.Kill(-p.Pid, signum); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
	return nil
}

// signaledExitCode maps death-by-signal to the shell convention 128+n.
func signaledExitCode(state *os.ProcessState) (int, bool) {
	if state == nil {
		return 0, false
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return 128 + int(ws.Signal()), true
}
