package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Cyclone1070/termpilot/internal/executor"
	"github.com/Cyclone1070/termpilot/internal/orchestrator"
	"github.com/Cyclone1070/termpilot/internal/policy"
	"github.com/mattn/go-isatty"
)

// Terminal renders loop progress as plain lines on a writer. Styling, the
// spinner and markdown rendering are enabled only on a terminal.
type Terminal struct {
	out      io.Writer
	tty      bool
	renderer MarkdownRenderer
	spinner  SpinnerFactory
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithRenderer overrides the markdown renderer.
func WithRenderer(r MarkdownRenderer) Option {
	return func(t *Terminal) { t.renderer = r }
}

// NewTerminal creates a Terminal writing to out.
func NewTerminal(out io.Writer, opts ...Option) *Terminal {
	t := &Terminal{
		out:     out,
		tty:     IsTerminal(out),
		spinner: DefaultSpinner,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.renderer == nil {
		t.renderer = PlainRenderer{}
		if t.tty {
			if r, err := NewGlamourRenderer(100); err == nil {
				t.renderer = r
			}
		}
	}
	return t
}

// IsTerminal reports whether v is a file attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (t *Terminal) style(s interface{ Render(...string) string }, text string) string {
	if !t.tty {
		return text
	}
	return s.Render(text)
}

// StartThinking shows a spinner until the returned func is called.
func (t *Terminal) StartThinking() func() {
	if !t.tty {
		return func() {}
	}
	return startSpinner(t.out, t.spinner, "Thinking")
}

// ShowAssistant prints the assistant text.
func (t *Terminal) ShowAssistant(text string) {
	rendered, err := t.renderer.Render(text)
	if err != nil {
		rendered = text + "\n"
	}
	fmt.Fprint(t.out, t.style(AssistantStyle, strings.TrimRight(rendered, "\n")))
	fmt.Fprintln(t.out)
}

// ShowCommand announces a command about to run.
func (t *Terminal) ShowCommand(req policy.Request, d policy.Decision) {
	line := t.style(CommandStyle, "$ "+req.Text)
	var notes []string
	if req.WorkingDir != "" {
		notes = append(notes, "in "+req.WorkingDir)
	}
	if req.Timeout > 0 {
		notes = append(notes, "timeout "+req.Timeout.String())
	}
	if req.Interactive {
		notes = append(notes, "interactive")
	}
	if len(notes) > 0 {
		line += " " + t.style(DimStyle, "("+strings.Join(notes, ", ")+")")
	}
	fmt.Fprintln(t.out, line)
}

// ShowResult prints the status line of a finished or blocked command.
// Captured output has already been streamed live by the executor.
func (t *Terminal) ShowResult(r orchestrator.Result) {
	out := r.Outcome
	if !r.Ran {
		fmt.Fprintln(t.out, t.style(ErrorStyle, "✗ "+r.Resolution.Request.Text+": "+out.Stderr))
		return
	}

	style := ErrorStyle
	var status string
	switch out.State {
	case executor.StateTimedOut:
		status = fmt.Sprintf("✗ timed out (exit %d)", out.ExitCode)
	case executor.StateInterrupted:
		status = fmt.Sprintf("✗ interrupted (exit %d)", out.ExitCode)
	case executor.StateSpawnError:
		msg := "could not start"
		if out.Err != nil {
			msg = out.Err.Error()
		}
		status = fmt.Sprintf("✗ %s (exit %d)", msg, out.ExitCode)
	default:
		if out.ExitCode == executor.ExitSuccess {
			style, status = SuccessStyle, "✔ done"
		} else {
			status = fmt.Sprintf("✗ exit %d", out.ExitCode)
		}
	}
	fmt.Fprintln(t.out, t.style(style, status)+t.duration(out))
	if out.Truncated {
		fmt.Fprintln(t.out, t.style(DimStyle, "output exceeded the capture limit"))
	}
}

func (t *Terminal) duration(out executor.Outcome) string {
	if out.Duration <= 0 {
		return ""
	}
	return " " + t.style(DimStyle, out.Duration.Round(time.Millisecond).String())
}

// ShowWarning prints a highlighted warning.
func (t *Terminal) ShowWarning(msg string) {
	fmt.Fprintln(t.out, t.style(WarningStyle, "! "+msg))
}

// ShowInfo prints an unstyled informational line.
func (t *Terminal) ShowInfo(msg string) {
	fmt.Fprintln(t.out, t.style(DimStyle, msg))
}
