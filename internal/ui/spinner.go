package ui

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// SpinnerFactory creates a new spinner
type SpinnerFactory func() spinner.Model

// DefaultSpinner is the spinner shown while the agent is thinking.
func DefaultSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ThinkingStyle
	return s
}

type stopMsg struct{}

type dotsMsg struct{}

// thinkingModel is the bubbletea model behind the "Thinking..." indicator.
type thinkingModel struct {
	spinner  spinner.Model
	label    string
	dots     int
	quitting bool
}

func newThinkingModel(sp spinner.Model, label string) thinkingModel {
	return thinkingModel{spinner: sp, label: label}
}

func (m thinkingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickDots())
}

func (m thinkingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		m.quitting = true
		return m, tea.Quit
	case dotsMsg:
		m.dots = (m.dots + 1) % 4
		return m, tickDots()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m thinkingModel) View() string {
	if m.quitting {
		return ""
	}
	return m.spinner.View() + " " + ThinkingStyle.Render(m.label+strings.Repeat(".", m.dots))
}

func tickDots() tea.Cmd {
	return tea.Tick(400*time.Millisecond, func(time.Time) tea.Msg { return dotsMsg{} })
}

// startSpinner runs the indicator on out until the returned func is called.
// The program never reads input and leaves signal handling to the caller.
func startSpinner(out io.Writer, factory SpinnerFactory, label string) func() {
	p := tea.NewProgram(
		newThinkingModel(factory(), label),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Run()
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.Send(stopMsg{})
			<-done
		})
	}
}
