package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Cyclone1070/termpilot/internal/agent"
	"github.com/Cyclone1070/termpilot/internal/audit"
	"github.com/Cyclone1070/termpilot/internal/conversation"
	"github.com/Cyclone1070/termpilot/internal/directive"
	"github.com/Cyclone1070/termpilot/internal/executor"
	"github.com/Cyclone1070/termpilot/internal/policy"
	"github.com/sirupsen/logrus"
)

// Source says where a command came from.
type Source string

const (
	SourceDirective Source = "directive"
	SourceTool      Source = "tool"
)

// Result pairs a proposed command with what happened to it.
type Result struct {
	Source     Source
	Original   policy.Request
	Resolution policy.Resolution
	Outcome    executor.Outcome
	// Ran is false when the policy or the user stopped the command.
	Ran bool
}

// Dependencies are the collaborators of the loop. Audit and Mode are optional.
type Dependencies struct {
	Agent     agentClient
	Confirmer confirmer
	Runner    runner
	UI        display
	Audit     recorder
	Mode      modeReader
	Log       logrus.FieldLogger
}

// Options tune the loop.
type Options struct {
	MaxTurns       int
	HistoryWindow  int
	MaxResultChars int
	SessionID      string
}

// Orchestrator alternates agent calls and command execution until a reply
// contains nothing to run.
type Orchestrator struct {
	agent     agentClient
	confirmer confirmer
	runner    runner
	ui        display
	audit     recorder
	mode      modeReader
	log       logrus.FieldLogger
	shell     *ShellTool

	maxTurns       int
	historyWindow  int
	maxResultChars int
	sessionID      string
	turn           int
}

// New creates a new Orchestrator instance
func New(deps Dependencies, opts Options) *Orchestrator {
	if deps.Agent == nil || deps.Confirmer == nil || deps.Runner == nil || deps.UI == nil {
		panic("agent, confirmer, runner and ui are required")
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = 20
	}
	if opts.MaxResultChars <= 0 {
		opts.MaxResultChars = 4000
	}

	o := &Orchestrator{
		agent:          deps.Agent,
		confirmer:      deps.Confirmer,
		runner:         deps.Runner,
		ui:             deps.UI,
		audit:          deps.Audit,
		mode:           deps.Mode,
		log:            deps.Log.WithField("session", opts.SessionID),
		maxTurns:       opts.MaxTurns,
		historyWindow:  opts.HistoryWindow,
		maxResultChars: opts.MaxResultChars,
		sessionID:      opts.SessionID,
	}
	o.shell = &ShellTool{run: o.process, maxChars: o.maxResultChars}
	return o
}

// ShellTool returns the tool-call boundary bound to this loop.
func (o *Orchestrator) ShellTool() *ShellTool {
	return o.shell
}

// Run repeats RunTurn until a reply has no directives or tool calls, or the
// turn cap is hit. On the cap a system note is appended and ErrMaxTurns returned.
func (o *Orchestrator) Run(ctx context.Context, conv *conversation.Conversation) error {
	for range o.maxTurns {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := o.RunTurn(ctx, conv)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}

	conv.AddSystem(fmt.Sprintf("[max turns (%d) reached; stopping]", o.maxTurns))
	o.ui.ShowWarning(fmt.Sprintf("stopped after %d turns without a final answer", o.maxTurns))
	return fmt.Errorf("%w (%d)", ErrMaxTurns, o.maxTurns)
}

// RunTurn makes one agent call and runs whatever it asked for. It reports
// done when the reply contained nothing to run.
func (o *Orchestrator) RunTurn(ctx context.Context, conv *conversation.Conversation) (bool, error) {
	o.turn++
	turn := o.turn
	log := o.log.WithField("turn", turn)

	stop := o.ui.StartThinking()
	resp, err := o.agent.Generate(ctx, conv.Window(o.historyWindow))
	stop()
	if err != nil {
		return false, &AgentCallError{Turn: turn, Err: err}
	}
	if resp == nil {
		return false, &AgentCallError{Turn: turn, Err: errors.New("empty response")}
	}

	conv.AddAssistant(resp.Text, resp.ToolCalls...)

	dirs, display := directive.Extract(resp.Text)
	if display != "" {
		o.ui.ShowAssistant(display)
	}

	log.WithFields(logrus.Fields{
		"directives": len(dirs),
		"tool_calls": len(resp.ToolCalls),
	}).Debug("agent replied")

	if len(dirs) == 0 && len(resp.ToolCalls) == 0 {
		return true, nil
	}

	results := make([]Result, 0, len(dirs))
	for _, d := range dirs {
		results = append(results, o.process(ctx, turn, SourceDirective, d.Request()))
	}

	if len(resp.ToolCalls) > 0 {
		toolResults := make([]conversation.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			toolResults = append(toolResults, o.executeToolCall(ctx, turn, call))
		}
		if err := conv.Append(conversation.Message{Role: conversation.RoleTool, ToolResults: toolResults}); err != nil {
			return false, err
		}
	}

	if len(results) > 0 {
		conv.AddUser(Summarize(results, o.maxResultChars))
	}

	return false, nil
}

// executeToolCall executes a single tool call and returns the result
func (o *Orchestrator) executeToolCall(ctx context.Context, turn int, call conversation.ToolCall) conversation.ToolResult {
	if call.Name != agent.ShellToolName {
		return conversation.ToolResult{
			ID:     call.ID,
			Name:   call.Name,
			Result: map[string]any{"error": fmt.Sprintf("unknown tool '%s'", call.Name), "exit_code": executor.ExitFailure},
		}
	}

	out, err := o.shell.execute(ctx, turn, call.Args)
	if err != nil {
		return conversation.ToolResult{
			ID:     call.ID,
			Name:   call.Name,
			Result: map[string]any{"error": err.Error(), "exit_code": executor.ExitFailure},
		}
	}
	return conversation.ToolResult{ID: call.ID, Name: call.Name, Result: out}
}

// process takes one request through policy, execution, display and audit.
func (o *Orchestrator) process(ctx context.Context, turn int, source Source, req policy.Request) Result {
	r := Result{Source: source, Original: req}

	res, err := o.confirmer.Resolve(ctx, req)
	if err != nil {
		o.log.WithError(err).WithField("command", req.Text).Warn("confirmation failed, refusing")
	}
	r.Resolution = res

	if res.Decision.Warn() {
		o.log.WithFields(logrus.Fields{
			"command": res.Request.Text,
			"reason":  res.Decision.Reason,
		}).Warn("running deny-listed command in auto mode")
		o.ui.ShowWarning(fmt.Sprintf("auto mode is running a deny-listed command: %s", res.Request.Text))
	}

	if res.Allowed() {
		o.ui.ShowCommand(res.Request, res.Decision)
		r.Outcome = o.runner.Execute(ctx, res.Request)
		r.Ran = true
	} else {
		r.Outcome = executor.Outcome{
			ExitCode: executor.ExitFailure,
			Stderr:   notRunReason(res),
		}
	}

	o.ui.ShowResult(r)
	o.record(ctx, turn, r)
	return r
}

func (o *Orchestrator) record(ctx context.Context, turn int, r Result) {
	if o.audit == nil {
		return
	}
	req := r.Resolution.Request
	e := audit.Entry{
		SessionID:  o.sessionID,
		Turn:       turn,
		Source:     string(r.Source),
		Command:    req.Text,
		WorkingDir: req.WorkingDir,
		Program:    policy.ProgramName(req.Text),
		Action:     string(r.Resolution.Decision.Action),
		Reason:     string(r.Resolution.Decision.Reason),
		Confirmed:  r.Resolution.Confirmed,
		Edited:     r.Resolution.Edited,
		State:      string(r.Outcome.State),
		ExitCode:   r.Outcome.ExitCode,
		Duration:   r.Outcome.Duration,
		CreatedAt:  time.Now(),
	}
	if o.mode != nil {
		e.Mode = string(o.mode.Mode())
	}
	if err := o.audit.Record(ctx, e); err != nil {
		o.log.WithError(err).Warn("failed to write audit entry")
	}
}

func notRunReason(res policy.Resolution) string {
	switch {
	case res.Refused:
		return "not executed: refused by user"
	case res.Decision.Reason == policy.ReasonMessageMode:
		return "not executed: execution is disabled (message-only mode)"
	case res.Decision.Reason == policy.ReasonMalformed:
		return "not executed: empty command"
	default:
		return fmt.Sprintf("not executed: %s command was not confirmed", res.Decision.Reason)
	}
}
