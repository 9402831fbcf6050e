package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/Cyclone1070/termpilot/internal/agent"
	"github.com/Cyclone1070/termpilot/internal/agent/gemini"
	"github.com/Cyclone1070/termpilot/internal/audit"
	"github.com/Cyclone1070/termpilot/internal/config"
	"github.com/Cyclone1070/termpilot/internal/conversation"
	"github.com/Cyclone1070/termpilot/internal/executor"
	"github.com/Cyclone1070/termpilot/internal/orchestrator"
	"github.com/Cyclone1070/termpilot/internal/policy"
	"github.com/Cyclone1070/termpilot/internal/ui"
	"github.com/Cyclone1070/termpilot/internal/workspace"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// loop is the part of the orchestrator a session drives.
type loop interface {
	Run(ctx context.Context, conv *conversation.Conversation) error
}

// session is one conversation with the assistant plus the machinery behind it.
type session struct {
	id    string
	cfg   *config.Config
	store *policy.Store
	conv  *conversation.Conversation
	loop  loop
	term  *ui.Terminal
	log   logrus.FieldLogger

	mu     sync.Mutex
	cancel context.CancelFunc

	closers []func() error
}

// newSession wires config, policy, executor, agent, UI and audit together.
// Interrupts that arrive while no command is running cancel the request in
// flight; with nothing in flight they call stop.
func newSession(ctx context.Context, cfg *config.Config, store *policy.Store, stop context.CancelFunc) (*session, error) {
	apiKey := os.Getenv(cfg.Agent.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set %s", agent.ErrMissingAPIKey, cfg.Agent.APIKeyEnv)
	}

	id := uuid.NewString()
	log := logrus.WithField("session", id)

	client, err := gemini.NewRealGeminiClient(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	s := &session{
		id:    id,
		cfg:   cfg,
		store: store,
		term:  ui.NewTerminal(os.Stdout),
		log:   log,
	}

	broker := executor.NewBroker(func() {
		if !s.cancelRequest() {
			stop()
		}
	})
	go broker.Listen(ctx)

	deps := orchestrator.Dependencies{
		Agent:     gemini.New(client, cfg.Agent.Model, agent.ShellToolDefinition()),
		Confirmer: policy.NewConfirmer(store, ui.NewSurveyPrompter(os.Stdin, os.Stdout, os.Stderr), log),
		Runner:    executor.New(cfg, broker, log),
		UI:        s.term,
		Mode:      store,
		Log:       log,
	}
	if cfg.Audit.Enabled {
		st, err := audit.Open(cfg.Audit.Path, log)
		if err != nil {
			log.WithError(err).Warn("audit trail disabled")
		} else {
			deps.Audit = st
			s.closers = append(s.closers, st.Close)
		}
	}

	s.loop = orchestrator.New(deps, orchestrator.Options{
		MaxTurns:       cfg.Orchestrator.MaxTurns,
		HistoryWindow:  cfg.Orchestrator.HistoryWindow,
		MaxResultChars: cfg.Orchestrator.MaxResultChars,
		SessionID:      id,
	})
	s.conv = conversation.New(s.systemPrompt())
	return s, nil
}

func (s *session) systemPrompt() string {
	pc := agent.PromptContext{
		OS:    runtime.GOOS,
		Shell: s.cfg.Executor.Shell,
	}
	if wd, err := os.Getwd(); err == nil {
		info, err := workspace.Describe(wd)
		if err != nil {
			s.log.WithError(err).Debug("failed to describe workspace")
		}
		pc.WorkingDir = info.Dir
		pc.GitBranch = info.Branch
		pc.GitDirty = info.Dirty
	}
	snap := s.store.Snapshot()
	pc.Mode = string(snap.Mode)
	pc.AllowList = snap.AllowList
	return agent.SystemPrompt(pc)
}

// ask appends a user request and runs the loop until the assistant is done.
func (s *session) ask(ctx context.Context, text string) error {
	reqCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	s.conv.AddUser(text)
	return s.loop.Run(reqCtx, s.conv)
}

// cancelRequest cancels the request in flight and reports whether there was one.
func (s *session) cancelRequest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

func (s *session) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			s.log.WithError(err).Debug("close failed")
		}
	}
}
