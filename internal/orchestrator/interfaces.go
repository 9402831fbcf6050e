package orchestrator

import (
	"context"

	"github.com/Cyclone1070/termpilot/internal/agent"
	"github.com/Cyclone1070/termpilot/internal/audit"
	"github.com/Cyclone1070/termpilot/internal/conversation"
	"github.com/Cyclone1070/termpilot/internal/executor"
	"github.com/Cyclone1070/termpilot/internal/policy"
)

// agentClient produces the next assistant reply.
type agentClient interface {
	Generate(ctx context.Context, messages []conversation.Message) (*agent.Response, error)
}

// confirmer runs the policy engine and any confirmation prompt.
type confirmer interface {
	Resolve(ctx context.Context, req policy.Request) (policy.Resolution, error)
}

// runner executes allowed commands.
type runner interface {
	Execute(ctx context.Context, req policy.Request) executor.Outcome
}

// display renders loop progress for the user.
type display interface {
	// StartThinking shows progress during the agent call; the returned func stops it.
	StartThinking() (stop func())
	ShowAssistant(text string)
	ShowCommand(req policy.Request, d policy.Decision)
	ShowResult(r Result)
	ShowWarning(msg string)
}

// recorder stores audit entries.
type recorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// modeReader reports the current execution mode for audit rows.
type modeReader interface {
	Mode() policy.Mode
}
