package policy

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/mattn/go-shellwords"
	"github.com/sirupsen/logrus"
)

// Choice is one answer to a confirmation prompt.
type Choice string

const (
	ChoiceExecute Choice = "execute"
	ChoiceEdit    Choice = "edit"
	ChoiceDetails Choice = "details"
	ChoiceRefuse  Choice = "refuse"
)

// Prompt is what the user sees when a command needs confirmation.
type Prompt struct {
	Request  Request
	Decision Decision
	Choices  []Choice
	Default  Choice
}

// Prompter asks the user about a command. Implementations live in the UI layer.
type Prompter interface {
	Choose(ctx context.Context, p Prompt) (Choice, error)
	Edit(ctx context.Context, current string) (string, error)
	ShowDetails(ctx context.Context, d Details) error
}

// Details is the extra information behind the "show details" choice.
type Details struct {
	Command     string
	Program     string
	WorkingDir  string
	Timeout     time.Duration
	Interactive bool
	Reason      Reason
	Reproduce   string
}

// DescribeRequest builds Details for a request and its decision.
func DescribeRequest(req Request, d Decision) Details {
	dir := req.WorkingDir
	if dir == "" {
		dir = "."
	}
	return Details{
		Command:     req.Text,
		Program:     ProgramName(req.Text),
		WorkingDir:  dir,
		Timeout:     req.Timeout,
		Interactive: req.Interactive,
		Reason:      d.Reason,
		Reproduce:   ReproduceLine(req),
	}
}

// ProgramName returns the base name of the first word of a command line.
// Leading environment assignments are skipped.
func ProgramName(text string) string {
	p := shellwords.NewParser()
	p.ParseEnv = false
	words, err := p.Parse(text)
	if err != nil || len(words) == 0 {
		words = strings.Fields(text)
	}
	for _, w := range words {
		if strings.Contains(w, "=") && !strings.HasPrefix(w, "=") && !strings.ContainsAny(w, "/") {
			continue
		}
		return filepath.Base(w)
	}
	return ""
}

// ReproduceLine renders a command line that reruns the request by hand.
func ReproduceLine(req Request) string {
	if req.WorkingDir == "" {
		return req.Text
	}
	return fmt.Sprintf("cd %s && %s", shellescape.Quote(req.WorkingDir), req.Text)
}

// Resolution is the final answer for a request after any confirmation.
// Action is always ActionAllow or ActionDeny.
type Resolution struct {
	Request  Request
	Decision Decision
	// Confirmed is set when the user explicitly approved execution.
	Confirmed bool
	// Refused is set when the user explicitly declined.
	Refused bool
	// Edited is set when the user replaced the command text.
	Edited bool
}

// Allowed reports whether the command may run.
func (r Resolution) Allowed() bool {
	return r.Decision.Action == ActionAllow
}

// Confirmer runs the engine and, for CONFIRM decisions, the interactive loop.
type Confirmer struct {
	store    *Store
	prompter Prompter
	log      logrus.FieldLogger
}

// NewConfirmer creates a Confirmer. A nil prompter refuses every confirmation.
func NewConfirmer(store *Store, prompter Prompter, log logrus.FieldLogger) *Confirmer {
	if store == nil {
		panic("store is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Confirmer{store: store, prompter: prompter, log: log}
}

// Resolve decides a request and resolves any confirmation into ALLOW or DENY.
// The settings snapshot taken at entry is used for every re-evaluation, so an
// edited command is judged by the same policy as the original.
// A prompter failure resolves to DENY and is returned alongside the resolution.
func (c *Confirmer) Resolve(ctx context.Context, req Request) (Resolution, error) {
	settings := c.store.Snapshot()
	res := Resolution{Request: req}

	for {
		d := Decide(res.Request, settings)
		res.Decision = d

		fields := logrus.Fields{"command": res.Request.Text, "mode": settings.Mode, "action": d.Action, "reason": d.Reason}
		if d.Warn() {
			c.log.WithFields(fields).Warn("auto mode is running a deny-listed command")
		} else {
			c.log.WithFields(fields).Debug("policy decision")
		}

		if d.Action != ActionConfirm {
			return res, nil
		}

		next, err := c.confirm(ctx, &res)
		if err != nil {
			res.Decision = Decision{Action: ActionDeny, Reason: d.Reason}
			return res, err
		}
		if !next {
			return res, nil
		}
	}
}

// confirm runs one prompt cycle. It returns true when the request was edited
// and must be evaluated again.
func (c *Confirmer) confirm(ctx context.Context, res *Resolution) (bool, error) {
	if c.prompter == nil {
		return false, ErrNoPrompter
	}

	d := res.Decision
	choices := []Choice{ChoiceExecute, ChoiceEdit, ChoiceDetails, ChoiceRefuse}
	def := ChoiceRefuse
	if d.SuggestedDefault {
		def = ChoiceExecute
	}

	for {
		choice, err := c.prompter.Choose(ctx, Prompt{
			Request:  res.Request,
			Decision: d,
			Choices:  slices.Clone(choices),
			Default:  def,
		})
		if err != nil {
			return false, fmt.Errorf("failed to get user confirmation: %w", err)
		}

		switch choice {
		case ChoiceExecute:
			res.Decision = Decision{Action: ActionAllow, Reason: d.Reason, SuggestedDefault: d.SuggestedDefault}
			res.Confirmed = true
			return false, nil

		case ChoiceRefuse:
			res.Decision = Decision{Action: ActionDeny, Reason: d.Reason, SuggestedDefault: d.SuggestedDefault}
			res.Refused = true
			return false, nil

		case ChoiceEdit:
			text, err := c.prompter.Edit(ctx, res.Request.Text)
			if err != nil {
				return false, fmt.Errorf("failed to read edited command: %w", err)
			}
			res.Request = res.Request.WithText(strings.TrimSpace(text))
			res.Edited = true
			return true, nil

		case ChoiceDetails:
			if !slices.Contains(choices, ChoiceDetails) {
				return false, fmt.Errorf("invalid confirmation choice: %s", choice)
			}
			if err := c.prompter.ShowDetails(ctx, DescribeRequest(res.Request, d)); err != nil {
				return false, fmt.Errorf("failed to show details: %w", err)
			}
			choices = slices.DeleteFunc(choices, func(ch Choice) bool { return ch == ChoiceDetails })

		default:
			return false, fmt.Errorf("invalid confirmation choice: %s", choice)
		}
	}
}
