package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Cyclone1070/termpilot/internal/agent"
	"github.com/Cyclone1070/termpilot/internal/orchestrator"
	"github.com/Cyclone1070/termpilot/internal/policy"
	"github.com/Cyclone1070/termpilot/internal/ui"
	"github.com/spf13/cobra"
)

func runAction(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := newPolicyStore(cmd, cfg)
	if err != nil {
		return err
	}
	interactive, err := cmd.Flags().GetBool("interactive")
	if err != nil {
		return err
	}

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()

	s, err := newSession(ctx, cfg, store, stop)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 1 {
		if err := s.ask(ctx, args[0]); err != nil {
			if !interactive {
				return err
			}
			s.reportError(err)
		}
		if !interactive {
			return nil
		}
	}

	return s.repl(ctx, ui.NewLineReader(os.Stdin, os.Stdout, os.Stderr))
}

// lineReader supplies REPL input.
type lineReader interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

// repl reads requests until /exit, end of input or ctx is cancelled.
func (s *session) repl(ctx context.Context, in lineReader) error {
	s.term.ShowInfo(fmt.Sprintf("mode: %s. Type /help for commands.", s.store.Mode()))
	for {
		line, err := in.ReadLine(ctx, ">")
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
			return nil
		case errors.Is(err, ui.ErrInterrupted):
			continue
		case err != nil:
			return err
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := s.command(line); quit {
				return nil
			}
			continue
		}

		if err := s.ask(ctx, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.reportError(err)
		}
	}
}

// command runs a slash command and reports whether the session should end.
func (s *session) command(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/exit", "/quit":
		return true
	case "/clear":
		s.conv.Clear()
		s.term.ShowInfo("conversation cleared")
	case "/mode":
		if len(fields) != 2 {
			s.term.ShowInfo(fmt.Sprintf("mode: %s", s.store.Mode()))
			return false
		}
		mode, err := policy.ParseMode(fields[1])
		if err != nil {
			s.term.ShowWarning(err.Error())
			return false
		}
		if err := s.store.Update(func(st *policy.Settings) { st.Mode = mode }); err != nil {
			s.term.ShowWarning(err.Error())
			return false
		}
		s.conv.AddSystem(fmt.Sprintf("[execution mode changed to %s]", mode))
		s.term.ShowInfo(fmt.Sprintf("mode: %s", mode))
	case "/help":
		s.term.ShowInfo("/mode [auto|allowlist|denylist|message]  show or change the execution mode\n/clear  forget the conversation\n/exit   leave")
	default:
		s.term.ShowWarning(fmt.Sprintf("unknown command %s", fields[0]))
	}
	return false
}

func (s *session) reportError(err error) {
	var callErr *orchestrator.AgentCallError
	switch {
	case errors.Is(err, orchestrator.ErrMaxTurns):
		// The loop already warned.
	case errors.Is(err, context.Canceled):
		s.term.ShowWarning("request cancelled")
	case errors.As(err, &callErr):
		msg := callErr.Error()
		if agent.IsRetryable(err) {
			msg += " (temporary, try again shortly)"
		}
		s.term.ShowWarning(msg)
	default:
		s.term.ShowWarning(err.Error())
	}
	s.log.WithError(err).Debug("request failed")
}
