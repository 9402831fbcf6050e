package config

import (
	"fmt"
	"strings"
)

var validModes = []string{"auto", "allowlist", "denylist", "message"}

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Policy validation
	modeOK := false
	for _, m := range validModes {
		if c.Policy.Mode == m {
			modeOK = true
			break
		}
	}
	if !modeOK {
		errs = append(errs, fmt.Sprintf("policy.mode must be one of %s, got %q", strings.Join(validModes, "|"), c.Policy.Mode))
	}

	// Executor validation
	if strings.TrimSpace(c.Executor.Shell) == "" {
		errs = append(errs, "executor.shell must not be empty")
	}
	if c.Executor.DefaultTimeoutMs < 0 {
		errs = append(errs, "executor.default_timeout_ms must be >= 0")
	}
	if c.Executor.MaxOutputBytes < 1 {
		errs = append(errs, "executor.max_output_bytes must be >= 1")
	}
	if c.Executor.InterruptGraceMs < 0 {
		errs = append(errs, "executor.interrupt_grace_ms must be >= 0")
	}
	if c.Executor.WaitDelayMs < 0 {
		errs = append(errs, "executor.wait_delay_ms must be >= 0")
	}

	// Orchestrator validation
	if c.Orchestrator.MaxTurns < 1 {
		errs = append(errs, "orchestrator.max_turns must be >= 1")
	}
	if c.Orchestrator.HistoryWindow < 0 {
		errs = append(errs, "orchestrator.history_window must be >= 0")
	}
	if c.Orchestrator.MaxResultChars < 1 {
		errs = append(errs, "orchestrator.max_result_chars must be >= 1")
	}

	// Agent validation
	if c.Agent.Model == "" {
		errs = append(errs, "agent.model must not be empty")
	}
	if c.Agent.APIKeyEnv == "" {
		errs = append(errs, "agent.api_key_env must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
