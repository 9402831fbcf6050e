package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Cyclone1070/termpilot/internal/policy"
	"github.com/mitchellh/mapstructure"
)

// ShellArgs are the arguments of the shell tool call.
type ShellArgs struct {
	Command          string `mapstructure:"command"`
	WorkingDirectory string `mapstructure:"working_directory"`
	TimeoutMs        int64  `mapstructure:"timeout_ms"`
}

// Validate checks the decoded arguments.
func (a ShellArgs) Validate() error {
	if strings.TrimSpace(a.Command) == "" {
		return policy.ErrEmptyCommand
	}
	if a.TimeoutMs < 0 {
		return errors.New("timeout_ms must be >= 0")
	}
	return nil
}

// Request converts the arguments to a policy request.
func (a ShellArgs) Request() policy.Request {
	return policy.Request{
		Text:       a.Command,
		WorkingDir: a.WorkingDirectory,
		Timeout:    time.Duration(a.TimeoutMs) * time.Millisecond,
	}
}

// ShellTool is the tool-call surface in front of policy and execution.
// Execute returns {stdout, stderr, exit_code}; a refused command has
// exit_code 1 and the reason in stderr.
type ShellTool struct {
	run      func(ctx context.Context, turn int, source Source, req policy.Request) Result
	maxChars int
}

// Execute decodes args, then gates and runs the command.
func (t *ShellTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	return t.execute(ctx, 0, args)
}

func (t *ShellTool) execute(ctx context.Context, turn int, args map[string]any) (map[string]any, error) {
	var sa ShellArgs
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &sa,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := sa.Validate(); err != nil {
		return nil, fmt.Errorf("run_shell validation failed: %w", err)
	}

	r := t.run(ctx, turn, SourceTool, sa.Request())
	out := map[string]any{
		"stdout":    Tail(r.Outcome.Stdout, t.maxChars),
		"stderr":    Tail(r.Outcome.Stderr, t.maxChars),
		"exit_code": r.Outcome.ExitCode,
	}
	if r.Outcome.TimedOut {
		out["timed_out"] = true
	}
	if r.Outcome.Interrupted {
		out["interrupted"] = true
	}
	return out, nil
}
