package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// operationDoneMsg carries the outcome of a session operation back into the
// spinner program.
type operationDoneMsg struct {
	err error
}

var (
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	elapsedStyle = lipgloss.NewStyle().Faint(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// operationModel shows one pending backend operation (sign in, register,
// token refresh) with its elapsed time. It only reports the outcome when the
// operation fails; success is printed by the command itself.
type operationModel struct {
	spinner spinner.Model
	label   string
	run     tea.Cmd
	started time.Time
	now     time.Time
	err     error
	done    bool
}

func newOperationModel(label string, run tea.Cmd, started time.Time) operationModel {
	return operationModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(pendingStyle)),
		label:   label,
		run:     run,
		started: started,
		now:     started,
	}
}

func (m operationModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m operationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		m.now = msg.Time
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case operationDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m operationModel) View() string {
	switch {
	case m.done && m.err != nil:
		return failedStyle.Render("x "+m.label) + "\n"
	case m.done:
		return ""
	}

	elapsed := m.now.Sub(m.started).Truncate(time.Second)
	if elapsed < time.Second {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	}
	return fmt.Sprintf("%s %s %s", m.spinner.View(), m.label, elapsedStyle.Render(elapsed.String()))
}

// withSpinner runs op while output shows label and returns op's result.
// Cancelling ctx stops the spinner and returns the context error.
func withSpinner[T any](ctx context.Context, output io.Writer, label string, op func(context.Context) (T, error)) (T, error) {
	var result T
	run := func() tea.Msg {
		value, err := op(ctx)
		result = value
		return operationDoneMsg{err: err}
	}

	p := tea.NewProgram(
		newOperationModel(label, run, time.Now()),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	final, err := p.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, tea.ErrProgramKilled) {
			return result, ctxErr
		}
		return result, err
	}

	model, ok := final.(operationModel)
	if !ok {
		return result, fmt.Errorf("unexpected final spinner model type %T", final)
	}
	return result, model.err
}
