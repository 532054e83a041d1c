package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oshokin/alarm-clock/internal/service/challenge"
	"github.com/oshokin/alarm-clock/internal/service/scheduler"
)

// Dismisser runs the challenge of a ringing alarm. Both the registry and the
// daemon client implement it.
type Dismisser interface {
	StartChallenge(ctx context.Context, id string) (scheduler.ChallengeView, error)
	SubmitAnswer(ctx context.Context, id, answer string) (scheduler.Attempt, error)
	AbandonChallenge(ctx context.Context, id string) error
}

// challengePhase is the step of the dismissal dialog.
type challengePhase int

const (
	phaseStarting challengePhase = iota
	phaseAnswering
	phaseFailed
	phaseSolved
	phaseAbandoned
	phaseBroken
)

type (
	challengeStartedMsg struct {
		view scheduler.ChallengeView
		err  error
	}

	answerResultMsg struct {
		attempt scheduler.Attempt
		err     error
	}

	abandonedMsg struct {
		err error
	}
)

// ChallengeModel asks the arithmetic questions that dismiss an alarm.
type ChallengeModel struct {
	ctx       context.Context //nolint:containedctx // Bubbletea models outlive a single call.
	dismisser Dismisser
	alarmID   string
	label     string
	phase     challengePhase
	view      scheduler.ChallengeView
	input     textinput.Model
	// notice is a one-line feedback under the question.
	notice string
	err    error
	keys   KeyMap
	help   help.Model
}

// NewChallengeModel creates the dialog for the alarm with the provided id.
func NewChallengeModel(ctx context.Context, d Dismisser, alarmID, label string) ChallengeModel {
	input := textinput.New()
	input.Placeholder = "answer"
	input.CharLimit = 8
	input.Width = 8
	input.Cursor.SetMode(cursor.CursorStatic)

	return ChallengeModel{
		ctx:       ctx,
		dismisser: d,
		alarmID:   alarmID,
		label:     label,
		input:     input,
		keys:      DefaultKeyMap(),
		help:      help.New(),
	}
}

// Solved reports whether the alarm was dismissed.
func (m ChallengeModel) Solved() bool {
	return m.phase == phaseSolved
}

// Err returns the error that ended the dialog, if any.
func (m ChallengeModel) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m ChallengeModel) Init() tea.Cmd {
	return m.start()
}

func (m ChallengeModel) start() tea.Cmd {
	return func() tea.Msg {
		view, err := m.dismisser.StartChallenge(m.ctx, m.alarmID)
		return challengeStartedMsg{view: view, err: err}
	}
}

func (m ChallengeModel) submit(answer string) tea.Cmd {
	return func() tea.Msg {
		attempt, err := m.dismisser.SubmitAnswer(m.ctx, m.alarmID, answer)
		return answerResultMsg{attempt: attempt, err: err}
	}
}

func (m ChallengeModel) abandon() tea.Cmd {
	return func() tea.Msg {
		return abandonedMsg{err: m.dismisser.AbandonChallenge(m.ctx, m.alarmID)}
	}
}

// Update implements tea.Model.
//
//nolint:cyclop // One branch per message and phase.
func (m ChallengeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case challengeStartedMsg:
		if msg.err != nil {
			m.phase, m.err = phaseBroken, msg.err
			return m, tea.Quit
		}

		m.phase, m.view, m.notice = phaseAnswering, msg.view, ""
		m.input.Reset()

		return m, m.input.Focus()
	case answerResultMsg:
		return m.handleAttempt(msg)
	case abandonedMsg:
		m.phase, m.err = phaseAbandoned, msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		switch m.phase {
		case phaseAnswering:
			switch {
			case key.Matches(msg, m.keys.Abandon), msg.String() == "ctrl+c":
				return m, m.abandon()
			case key.Matches(msg, m.keys.Submit):
				answer := m.input.Value()
				m.input.Reset()

				return m, m.submit(answer)
			}
		case phaseFailed:
			switch {
			case key.Matches(msg, m.keys.Submit):
				m.phase = phaseStarting
				return m, m.start()
			case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Abandon):
				m.phase = phaseAbandoned
				return m, tea.Quit
			}
		case phaseStarting:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		case phaseSolved, phaseAbandoned, phaseBroken:
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

// handleAttempt moves the dialog according to the answer outcome.
func (m ChallengeModel) handleAttempt(msg answerResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.phase, m.err = phaseBroken, msg.err
		return m, tea.Quit
	}

	switch msg.attempt.Result {
	case challenge.ResultAdvance:
		m.view, m.notice = msg.attempt.Next, ""
	case challenge.ResultInvalidInput:
		m.notice = "Please enter a whole number."
	case challenge.ResultFailed:
		m.phase = phaseFailed
		m.notice = "Wrong answer. The alarm rings again."
		m.input.Blur()
	case challenge.ResultSolved:
		m.phase = phaseSolved
		m.input.Blur()

		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m ChallengeModel) View() string {
	parts := []string{titleStyle.Render("⏰ " + m.label)}

	switch m.phase {
	case phaseStarting:
		parts = append(parts, dimStyle.Render("Preparing the challenge..."))
	case phaseAnswering:
		parts = append(parts,
			dimStyle.Render(fmt.Sprintf("Question %d of %d", m.view.Index+1, m.view.Total)),
			readoutStyle.Render(m.view.Question+" = ?"),
			m.input.View(),
		)

		if m.notice != "" {
			parts = append(parts, alertStyle.Render(m.notice))
		}

		parts = append(parts, m.help.View(bindings{m.keys.Submit, m.keys.Abandon}))
	case phaseFailed:
		parts = append(parts,
			alertStyle.Render(m.notice),
			dimStyle.Render("Press enter to try again or q to leave it ringing."),
		)
	case phaseSolved:
		parts = append(parts, okStyle.Render("Alarm dismissed. Good morning!"))
	case phaseAbandoned:
		parts = append(parts, dimStyle.Render("Challenge abandoned, the alarm is still ringing."))
	case phaseBroken:
		parts = append(parts, alertStyle.Render(fmt.Sprint(m.err)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
