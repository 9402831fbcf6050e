package policy

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockPrompter implements Prompter with function fields.
type MockPrompter struct {
	ChooseFunc      func(ctx context.Context, p Prompt) (Choice, error)
	EditFunc        func(ctx context.Context, current string) (string, error)
	ShowDetailsFunc func(ctx context.Context, d Details) error

	Prompts []Prompt
	Shown   []Details
}

func (m *MockPrompter) Choose(ctx context.Context, p Prompt) (Choice, error) {
	m.Prompts = append(m.Prompts, p)
	if m.ChooseFunc != nil {
		return m.ChooseFunc(ctx, p)
	}
	return ChoiceRefuse, nil
}

func (m *MockPrompter) Edit(ctx context.Context, current string) (string, error) {
	if m.EditFunc != nil {
		return m.EditFunc(ctx, current)
	}
	return current, nil
}

func (m *MockPrompter) ShowDetails(ctx context.Context, d Details) error {
	m.Shown = append(m.Shown, d)
	if m.ShowDetailsFunc != nil {
		return m.ShowDetailsFunc(ctx, d)
	}
	return nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestConfirmer(t *testing.T, p Prompter) *Confirmer {
	t.Helper()
	store, err := NewStore(scenarioSettings())
	require.NoError(t, err)
	return NewConfirmer(store, p, quietLogger())
}

// answers returns a ChooseFunc that replays the given choices in order.
func answers(choices ...Choice) func(context.Context, Prompt) (Choice, error) {
	i := 0
	return func(context.Context, Prompt) (Choice, error) {
		c := choices[i]
		i++
		return c, nil
	}
}

func TestResolve_AllowedWithoutPrompt(t *testing.T) {
	p := &MockPrompter{}
	c := newTestConfirmer(t, p)

	res, err := c.Resolve(context.Background(), Request{Text: "ls -la"})

	require.NoError(t, err)
	assert.True(t, res.Allowed())
	assert.False(t, res.Confirmed)
	assert.Empty(t, p.Prompts)
}

func TestResolve_Execute(t *testing.T) {
	p := &MockPrompter{ChooseFunc: answers(ChoiceExecute)}
	c := newTestConfirmer(t, p)

	res, err := c.Resolve(context.Background(), Request{Text: "echo hi"})

	require.NoError(t, err)
	assert.True(t, res.Allowed())
	assert.True(t, res.Confirmed)
	assert.Equal(t, ReasonUnlisted, res.Decision.Reason)
	require.Len(t, p.Prompts, 1)
	assert.Equal(t, ChoiceExecute, p.Prompts[0].Default)
	assert.Equal(t, []Choice{ChoiceExecute, ChoiceEdit, ChoiceDetails, ChoiceRefuse}, p.Prompts[0].Choices)
}

func TestResolve_DenylistedDefaultsToRefuse(t *testing.T) {
	p := &MockPrompter{ChooseFunc: answers(ChoiceRefuse)}
	c := newTestConfirmer(t, p)

	res, err := c.Resolve(context.Background(), Request{Text: "rm -rf /tmp/x"})

	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.True(t, res.Refused)
	assert.Equal(t, ReasonDenylisted, res.Decision.Reason)
	assert.Equal(t, ChoiceRefuse, p.Prompts[0].Default)
}

func TestResolve_DetailsRemovesChoice(t *testing.T) {
	p := &MockPrompter{ChooseFunc: answers(ChoiceDetails, ChoiceExecute)}
	c := newTestConfirmer(t, p)

	req := Request{Text: "echo hi", WorkingDir: "/tmp/my dir", Timeout: 5 * time.Second}
	res, err := c.Resolve(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, res.Allowed())
	require.Len(t, p.Prompts, 2)
	assert.NotContains(t, p.Prompts[1].Choices, ChoiceDetails)
	require.Len(t, p.Shown, 1)
	assert.Equal(t, "/tmp/my dir", p.Shown[0].WorkingDir)
	assert.Equal(t, 5*time.Second, p.Shown[0].Timeout)
	assert.Equal(t, ReasonUnlisted, p.Shown[0].Reason)
	assert.Equal(t, "echo", p.Shown[0].Program)
	assert.Equal(t, "cd '/tmp/my dir' && echo hi", p.Shown[0].Reproduce)
}

func TestResolve_DetailsTwiceIsInvalid(t *testing.T) {
	p := &MockPrompter{ChooseFunc: answers(ChoiceDetails, ChoiceDetails)}
	c := newTestConfirmer(t, p)

	res, err := c.Resolve(context.Background(), Request{Text: "echo hi"})

	require.Error(t, err)
	assert.False(t, res.Allowed())
}

func TestResolve_EditReevaluates(t *testing.T) {
	t.Run("Edited into allowlist runs without prompt", func(t *testing.T) {
		p := &MockPrompter{
			ChooseFunc: answers(ChoiceEdit),
			EditFunc:   func(context.Context, string) (string, error) { return "ls /tmp", nil },
		}
		c := newTestConfirmer(t, p)

		res, err := c.Resolve(context.Background(), Request{Text: "echo hi", WorkingDir: "/w"})

		require.NoError(t, err)
		assert.True(t, res.Allowed())
		assert.True(t, res.Edited)
		assert.Equal(t, "ls /tmp", res.Request.Text)
		assert.Equal(t, "/w", res.Request.WorkingDir)
		assert.Equal(t, ReasonAllowlisted, res.Decision.Reason)
		assert.Len(t, p.Prompts, 1)
	})

	t.Run("Edited into denylist prompts again", func(t *testing.T) {
		p := &MockPrompter{
			ChooseFunc: answers(ChoiceEdit, ChoiceRefuse),
			EditFunc:   func(context.Context, string) (string, error) { return "rm -rf /", nil },
		}
		c := newTestConfirmer(t, p)

		res, err := c.Resolve(context.Background(), Request{Text: "echo hi"})

		require.NoError(t, err)
		assert.False(t, res.Allowed())
		require.Len(t, p.Prompts, 2)
		assert.Equal(t, ReasonDenylisted, p.Prompts[1].Decision.Reason)
		assert.Equal(t, ChoiceRefuse, p.Prompts[1].Default)
		assert.Contains(t, p.Prompts[1].Choices, ChoiceDetails)
	})

	t.Run("Edited to empty is malformed", func(t *testing.T) {
		p := &MockPrompter{
			ChooseFunc: answers(ChoiceEdit),
			EditFunc:   func(context.Context, string) (string, error) { return "   ", nil },
		}
		c := newTestConfirmer(t, p)

		res, err := c.Resolve(context.Background(), Request{Text: "echo hi"})

		require.NoError(t, err)
		assert.False(t, res.Allowed())
		assert.Equal(t, ReasonMalformed, res.Decision.Reason)
	})
}

func TestResolve_PolicySnapshotUsedForEdits(t *testing.T) {
	store, err := NewStore(scenarioSettings())
	require.NoError(t, err)

	p := &MockPrompter{ChooseFunc: answers(ChoiceEdit, ChoiceRefuse)}
	p.EditFunc = func(context.Context, string) (string, error) {
		// Policy changes mid-prompt must not affect this resolution.
		require.NoError(t, store.Update(func(s *Settings) { s.Mode = ModeAuto }))
		return "echo edited", nil
	}
	c := NewConfirmer(store, p, quietLogger())

	res, err := c.Resolve(context.Background(), Request{Text: "echo hi"})

	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.Len(t, p.Prompts, 2)
}

func TestResolve_PrompterErrorDenies(t *testing.T) {
	boom := errors.New("no tty")
	p := &MockPrompter{ChooseFunc: func(context.Context, Prompt) (Choice, error) { return "", boom }}
	c := newTestConfirmer(t, p)

	res, err := c.Resolve(context.Background(), Request{Text: "echo hi"})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ActionDeny, res.Decision.Action)
}

func TestResolve_NilPrompterDenies(t *testing.T) {
	c := newTestConfirmer(t, nil)

	res, err := c.Resolve(context.Background(), Request{Text: "echo hi"})

	assert.ErrorIs(t, err, ErrNoPrompter)
	assert.False(t, res.Allowed())
}

func TestResolve_MessageModeNeverPrompts(t *testing.T) {
	store, err := NewStore(Settings{Mode: ModeMessageOnly, AllowList: []string{"ls"}})
	require.NoError(t, err)
	p := &MockPrompter{}
	c := NewConfirmer(store, p, quietLogger())

	res, err := c.Resolve(context.Background(), Request{Text: "ls"})

	require.NoError(t, err)
	assert.Equal(t, Decision{Action: ActionDeny, Reason: ReasonMessageMode}, res.Decision)
	assert.Empty(t, p.Prompts)
}

func TestProgramName(t *testing.T) {
	tests := map[string]string{
		"ls -la":              "ls",
		"/usr/bin/git status": "git",
		"FOO=bar make test":   "make",
		`"my tool" --flag`:    "my tool",
		"echo 'unterminated":  "echo",
		"grep x file | wc -l": "grep",
		"":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ProgramName(in), in)
	}
}

func TestReproduceLine(t *testing.T) {
	assert.Equal(t, "ls", ReproduceLine(Request{Text: "ls"}))
	assert.Equal(t, "cd /tmp && ls", ReproduceLine(Request{Text: "ls", WorkingDir: "/tmp"}))
}
