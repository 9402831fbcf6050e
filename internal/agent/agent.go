// Package agent defines the contract between the orchestration loop and the
// model that proposes commands.
package agent

import (
	"github.com/Cyclone1070/termpilot/internal/conversation"
)

// Response is one reply from the agent.
type Response struct {
	Text      string
	ToolCalls []conversation.ToolCall
	Usage     Usage
	Model     string
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ToolDefinition describes a native function the agent may call.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  *ParameterSchema
}

// ParameterSchema is the JSON-schema-like object describing tool arguments.
type ParameterSchema struct {
	Type       string
	Properties map[string]PropertySchema
	Required   []string
}

// PropertySchema describes one argument.
type PropertySchema struct {
	Type        string
	Description string
	Enum        []string
}

// ShellToolName is the native name of the shell tool.
const ShellToolName = "run_shell"

// ShellToolDefinition declares the shell tool-call boundary.
func ShellToolDefinition() ToolDefinition {
	return ToolDefinition{
		Name:        ShellToolName,
		Description: "Run a shell command on the user's machine, subject to their execution policy. Returns stdout, stderr and exit_code (124 timeout, 130 interrupted, 1 refused or failed to start).",
		Parameters: &ParameterSchema{
			Type: "object",
			Properties: map[string]PropertySchema{
				"command": {
					Type:        "string",
					Description: "Shell command line to run with sh -c",
				},
				"working_directory": {
					Type:        "string",
					Description: "Directory to run in; defaults to the current directory",
				},
				"timeout_ms": {
					Type:        "integer",
					Description: "Kill the command after this many milliseconds",
				},
			},
			Required: []string{"command"},
		},
	}
}
