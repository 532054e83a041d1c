package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oshokin/alarm-clock/internal/format"
	"github.com/oshokin/alarm-clock/internal/service/timer"
)

// timerEventMsg carries a countdown update.
type timerEventMsg timer.Event

// timerField indexes the duration inputs.
const (
	fieldHours = iota
	fieldMinutes
	fieldSeconds
	fieldCount
)

// TimerModel lets the user enter a duration and runs the countdown.
type TimerModel struct {
	ctx    context.Context //nolint:containedctx // Bubbletea models outlive a single call.
	timer  *timer.Timer
	events <-chan timer.Event
	inputs []textinput.Model
	focus  int
	keys   KeyMap
	help   help.Model
	// err is the last input error shown under the fields.
	err error
}

// NewTimerModel creates the view for t.
func NewTimerModel(ctx context.Context, t *timer.Timer) TimerModel {
	inputs := make([]textinput.Model, fieldCount)
	for i, placeholder := range []string{"hh", "mm", "ss"} {
		input := textinput.New()
		input.Placeholder = placeholder
		input.CharLimit = 3
		input.Width = 3
		input.Prompt = ""
		input.Cursor.SetMode(cursor.CursorStatic)
		inputs[i] = input
	}

	inputs[fieldHours].Focus()

	return TimerModel{
		ctx:    ctx,
		timer:  t,
		events: t.Subscribe(16),
		inputs: inputs,
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}
}

// Init implements tea.Model.
func (m TimerModel) Init() tea.Cmd {
	return m.waitForEvent()
}

// waitForEvent delivers the next countdown event.
func (m TimerModel) waitForEvent() tea.Cmd {
	events := m.events

	return func() tea.Msg {
		return timerEventMsg(<-events)
	}
}

// editing reports whether the duration fields accept input.
func (m TimerModel) editing() bool {
	remaining, _ := m.timer.Read()

	return remaining == 0 && !m.timer.Ringing()
}

// Update implements tea.Model.
//
//nolint:cyclop // One branch per key.
func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case timerEventMsg:
		return m, m.waitForEvent()
	case tea.KeyMsg:
		switch {
		case msg.String() == "ctrl+c":
			m.timer.Reset(m.ctx)
			return m, tea.Quit
		case m.editing():
			return m.updateInputs(msg)
		case key.Matches(msg, m.keys.Quit):
			m.timer.Reset(m.ctx)
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			if m.timer.Ringing() {
				m.timer.Stop(m.ctx)
				return m, m.focusField(fieldHours)
			}

			m.err = m.timer.Toggle(m.ctx)
		case key.Matches(msg, m.keys.Reset):
			m.timer.Reset(m.ctx)
			m.err = nil

			return m, m.focusField(fieldHours)
		}
	}

	return m, nil
}

// updateInputs handles keys while the duration is being entered.
func (m TimerModel) updateInputs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "right":
		return m, m.focusField((m.focus + 1) % fieldCount)
	case "shift+tab", "left":
		return m, m.focusField((m.focus + fieldCount - 1) % fieldCount)
	case "esc":
		return m, tea.Quit
	case "enter":
		m.err = m.timer.ArmFields(
			m.inputs[fieldHours].Value(),
			m.inputs[fieldMinutes].Value(),
			m.inputs[fieldSeconds].Value(),
		)
		if m.err != nil {
			return m, nil
		}

		for i := range m.inputs {
			m.inputs[i].Reset()
			m.inputs[i].Blur()
		}

		m.err = m.timer.Start(m.ctx)

		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)

	return m, cmd
}

// focusField moves the cursor to the provided field.
func (m *TimerModel) focusField(field int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = field

	return m.inputs[field].Focus()
}

// View implements tea.Model.
func (m TimerModel) View() string {
	parts := []string{titleStyle.Render("Timer")}

	if m.editing() {
		parts = append(parts,
			lipgloss.JoinHorizontal(lipgloss.Top,
				m.inputs[fieldHours].View(), dimStyle.Render(" h  "),
				m.inputs[fieldMinutes].View(), dimStyle.Render(" m  "),
				m.inputs[fieldSeconds].View(), dimStyle.Render(" s"),
			),
		)

		if m.err != nil {
			parts = append(parts, alertStyle.Render(describeTimerError(m.err)))
		}

		parts = append(parts, dimStyle.Render("tab to move between fields, enter to start, esc to quit"))

		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	remaining, running := m.timer.Read()
	parts = append(parts, readoutStyle.Render(format.Countdown(remaining)))

	switch {
	case m.timer.Ringing():
		parts = append(parts, alertStyle.Render("Time's up! Press space to silence."))
	case running:
		parts = append(parts, dimStyle.Render("running"))
	default:
		parts = append(parts, dimStyle.Render("paused"))
	}

	parts = append(parts, m.help.View(bindings{m.keys.Toggle, m.keys.Reset, m.keys.Quit}))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// describeTimerError turns timer errors into user messages.
func describeTimerError(err error) string {
	switch {
	case errors.Is(err, timer.ErrInvalidDuration):
		return "Enter whole, non-negative numbers with a total above zero."
	case errors.Is(err, timer.ErrTimerArmed):
		return "The timer is already set."
	default:
		return err.Error()
	}
}
