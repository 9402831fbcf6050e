package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/Cyclone1070/termpilot/internal/policy"
)

// ErrNotTerminal is returned when a prompt needs a terminal and stdin is not one.
var ErrNotTerminal = errors.New("confirmation requires an interactive terminal")

// ErrInterrupted is returned when the user presses Ctrl+C at a prompt.
var ErrInterrupted = errors.New("prompt interrupted")

var choiceLabels = map[policy.Choice]string{
	policy.ChoiceExecute: "Execute",
	policy.ChoiceEdit:    "Edit the command",
	policy.ChoiceDetails: "Show details",
	policy.ChoiceRefuse:  "Refuse",
}

type askFunc func(p survey.Prompt, response any, opts ...survey.AskOpt) error

// SurveyPrompter asks confirmation questions on the terminal.
type SurveyPrompter struct {
	in  terminal.FileReader
	out terminal.FileWriter
	err io.Writer
	tty bool
	ask askFunc
}

// NewSurveyPrompter creates a prompter on the given streams. Prompts fail
// with ErrNotTerminal when in is not a terminal.
func NewSurveyPrompter(in terminal.FileReader, out terminal.FileWriter, errOut io.Writer) *SurveyPrompter {
	return &SurveyPrompter{
		in:  in,
		out: out,
		err: errOut,
		tty: IsTerminal(in),
		ask: survey.AskOne,
	}
}

func (p *SurveyPrompter) askOne(ctx context.Context, prompt survey.Prompt, response any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.tty {
		return ErrNotTerminal
	}
	err := p.ask(prompt, response, survey.WithStdio(p.in, p.out, p.err))
	if errors.Is(err, terminal.InterruptErr) {
		return ErrInterrupted
	}
	return err
}

// Choose shows the command and asks what to do with it.
func (p *SurveyPrompter) Choose(ctx context.Context, pr policy.Prompt) (policy.Choice, error) {
	options := make([]string, 0, len(pr.Choices))
	byLabel := make(map[string]policy.Choice, len(pr.Choices))
	for _, c := range pr.Choices {
		label := choiceLabels[c]
		if label == "" {
			label = string(c)
		}
		options = append(options, label)
		byLabel[label] = c
	}

	q := &survey.Select{
		Message: confirmMessage(pr),
		Options: options,
	}
	if label, ok := choiceLabels[pr.Default]; ok {
		q.Default = label
	}

	var answer string
	if err := p.askOne(ctx, q, &answer); err != nil {
		return policy.ChoiceRefuse, err
	}
	choice, ok := byLabel[answer]
	if !ok {
		return policy.ChoiceRefuse, fmt.Errorf("unexpected answer %q", answer)
	}
	return choice, nil
}

func confirmMessage(pr policy.Prompt) string {
	var why string
	switch pr.Decision.Reason {
	case policy.ReasonDenylisted:
		why = "matches the deny list"
	case policy.ReasonUnlisted:
		why = "is not on the allow list"
	default:
		why = strings.ToLower(string(pr.Decision.Reason))
	}
	return fmt.Sprintf("Run `%s`? (command %s)", pr.Request.Text, why)
}

// Edit lets the user rewrite the command, starting from current.
func (p *SurveyPrompter) Edit(ctx context.Context, current string) (string, error) {
	var edited string
	q := &survey.Input{Message: "Command:", Default: current}
	if err := p.askOne(ctx, q, &edited); err != nil {
		return "", err
	}
	return edited, nil
}

// ShowDetails prints what the command will do and how to rerun it by hand.
func (p *SurveyPrompter) ShowDetails(ctx context.Context, d policy.Details) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(p.out, FormatDetails(d))
	return err
}

// FormatDetails renders Details as an indented block.
func FormatDetails(d policy.Details) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  command:     %s\n", d.Command)
	fmt.Fprintf(&b, "  program:     %s\n", d.Program)
	fmt.Fprintf(&b, "  directory:   %s\n", d.WorkingDir)
	if d.Timeout > 0 {
		fmt.Fprintf(&b, "  timeout:     %s\n", d.Timeout)
	} else {
		b.WriteString("  timeout:     none\n")
	}
	fmt.Fprintf(&b, "  interactive: %t\n", d.Interactive)
	fmt.Fprintf(&b, "  reason:      %s\n", d.Reason)
	fmt.Fprintf(&b, "  reproduce:   %s\n", d.Reproduce)
	return b.String()
}
