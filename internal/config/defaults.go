package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden by the layers applied in Loader.Load.
// NOTE: Values present in a config file override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Policy       PolicyConfig       `json:"policy" yaml:"policy"`
	Executor     ExecutorConfig     `json:"executor" yaml:"executor"`
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator"`
	Agent        AgentConfig        `json:"agent" yaml:"agent"`
	Audit        AuditConfig        `json:"audit" yaml:"audit"`
}

// PolicyConfig is the configuration surface consumed by the policy store.
type PolicyConfig struct {
	Mode      string   `json:"mode" yaml:"mode"`             // Default: "allowlist"
	AllowList []string `json:"allow_list" yaml:"allow_list"` // Default: read-only commands
	DenyList  []string `json:"deny_list" yaml:"deny_list"`   // Default: empty
}

type ExecutorConfig struct {
	Shell            string `json:"shell" yaml:"shell"`                           // Default: /bin/sh
	DefaultTimeoutMs int    `json:"default_timeout_ms" yaml:"default_timeout_ms"` // Default: 0 (no timeout)
	MaxOutputBytes   int64  `json:"max_output_bytes" yaml:"max_output_bytes"`     // Default: 10 * 1024 * 1024 (10MB)
	InterruptGraceMs int    `json:"interrupt_grace_ms" yaml:"interrupt_grace_ms"` // Default: 2000
	WaitDelayMs      int    `json:"wait_delay_ms" yaml:"wait_delay_ms"`           // Default: 500
}

type OrchestratorConfig struct {
	MaxTurns       int `json:"max_turns" yaml:"max_turns"`               // Default: 20
	HistoryWindow  int `json:"history_window" yaml:"history_window"`     // Default: 0 (full history)
	MaxResultChars int `json:"max_result_chars" yaml:"max_result_chars"` // Default: 4000
}

type AgentConfig struct {
	Model     string `json:"model" yaml:"model"`             // Default: gemini-2.5-flash
	APIKeyEnv string `json:"api_key_env" yaml:"api_key_env"` // Default: GEMINI_API_KEY
}

type AuditConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"` // Default: true
	Path    string `json:"path" yaml:"path"`       // Default: "" (~/.config/termpilot/audit.db)
}

// DefaultAllowList is the built-in list of read-only commands.
func DefaultAllowList() []string {
	return []string{
		"ls",
		"pwd",
		"cat",
		"echo",
		"head",
		"tail",
		"wc",
		"grep",
		"find",
		"which",
		"git status",
		"git log",
		"git diff",
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Policy: PolicyConfig{
			Mode:      "allowlist",
			AllowList: DefaultAllowList(),
			DenyList:  []string{},
		},
		Executor: ExecutorConfig{
			Shell:            "/bin/sh",
			DefaultTimeoutMs: 0,
			MaxOutputBytes:   10 * 1024 * 1024,
			InterruptGraceMs: 2000,
			WaitDelayMs:      500,
		},
		Orchestrator: OrchestratorConfig{
			MaxTurns:       20,
			HistoryWindow:  0,
			MaxResultChars: 4000,
		},
		Agent: AgentConfig{
			Model:     "gemini-2.5-flash",
			APIKeyEnv: "GEMINI_API_KEY",
		},
		Audit: AuditConfig{
			Enabled: true,
		},
	}
}
