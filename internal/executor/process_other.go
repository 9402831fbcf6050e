//go:build !unix

package executor

import (
	"io"
	"os"
	"os/exec"
)

func configureProcess(cmd *exec.Cmd, interactive bool, stdin io.Reader) (restore func()) {
	return func() {}
}

func signalProcess(p *os.Process, s sig) error {
	if p == nil {
		return os.ErrProcessDone
	}
	if s == sigInterrupt {
		if err := p.Signal(os.Interrupt); err == nil {
			return nil
		}
	}
	return p.Kill()
}

func signaledExitCode(state *os.ProcessState) (int, bool) {
	return 0, false
}
