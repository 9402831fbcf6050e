package orchestrator

import (
	"errors"
	"fmt"
)

// ErrMaxTurns is returned when the loop hits its turn cap.
var ErrMaxTurns = errors.New("max turns reached")

// AgentCallError reports a failed agent call. The loop does not retry.
type AgentCallError struct {
	Turn int
	Err  error
}

func (e *AgentCallError) Error() string {
	return fmt.Sprintf("agent call failed on turn %d: %v", e.Turn, e.Err)
}

func (e *AgentCallError) Unwrap() error { return e.Err }
