package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_AllDefaults_Pass(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestValidate_Policy(t *testing.T) {
	for _, mode := range []string{"auto", "allowlist", "denylist", "message"} {
		t.Run("Mode "+mode+" Passes", func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Policy.Mode = mode
			assert.NoError(t, cfg.Validate())
		})
	}

	t.Run("Unknown Mode Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Policy.Mode = "AUTO"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "policy.mode")
	})
}

func TestValidate_Executor(t *testing.T) {
	t.Run("Empty Shell Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Executor.Shell = "  "
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "executor.shell")
	})

	t.Run("Negative Timeout Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Executor.DefaultTimeoutMs = -1
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "default_timeout_ms")
	})

	t.Run("Zero Output Limit Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Executor.MaxOutputBytes = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_output_bytes")
	})
}

func TestValidate_Orchestrator(t *testing.T) {
	t.Run("Zero MaxTurns Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Orchestrator.MaxTurns = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_turns")
	})

	t.Run("Negative Window Fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Orchestrator.HistoryWindow = -2
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "history_window")
	})
}

func TestValidate_MultipleErrors_AllReported(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.Model = ""
	cfg.Orchestrator.MaxResultChars = 0
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "agent.model")
	assert.Contains(t, err.Error(), "max_result_chars")
}
