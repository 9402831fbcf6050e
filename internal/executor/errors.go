package executor

import (
	"fmt"
)

// SpawnError is recorded in an Outcome when the command could not be started,
// or when the shell reports that the program could not be found or run.
type SpawnError struct {
	Cmd   string
	Cause error
	Stage string // "start", "exec"
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("command %q failed at %s: %v", e.Cmd, e.Stage, e.Cause)
}

func (e *SpawnError) Unwrap() error { return e.Cause }
