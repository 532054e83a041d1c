package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oshokin/alarm-clock/internal/format"
	"github.com/oshokin/alarm-clock/internal/service/stopwatch"
)

// stopwatchTickMsg asks the stopwatch view to redraw.
type stopwatchTickMsg time.Time

// StopwatchModel shows a stopwatch with millisecond precision.
type StopwatchModel struct {
	stopwatch *stopwatch.Stopwatch
	refresh   time.Duration
	keys      KeyMap
	help      help.Model
	// ticking tells whether a redraw tick is scheduled.
	ticking bool
}

// NewStopwatchModel creates the view. refresh is the redraw period while running.
func NewStopwatchModel(s *stopwatch.Stopwatch, refresh time.Duration) StopwatchModel {
	if refresh <= 0 {
		refresh = stopwatch.DefaultRefresh
	}

	return StopwatchModel{
		stopwatch: s,
		refresh:   refresh,
		keys:      DefaultKeyMap(),
		help:      help.New(),
	}
}

// Init implements tea.Model.
func (m StopwatchModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StopwatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			m.stopwatch.Toggle()
		case key.Matches(msg, m.keys.Reset):
			m.stopwatch.Reset()
		}
	case stopwatchTickMsg:
		m.ticking = false
	}

	if m.stopwatch.Running() && !m.ticking {
		m.ticking = true

		return m, tea.Tick(m.refresh, func(t time.Time) tea.Msg {
			return stopwatchTickMsg(t)
		})
	}

	return m, nil
}

// View implements tea.Model.
func (m StopwatchModel) View() string {
	status := "stopped"
	if m.stopwatch.Running() {
		status = "running"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Stopwatch"),
		readoutStyle.Render(format.Stopwatch(m.stopwatch.Read())),
		dimStyle.Render(status),
		m.help.View(bindings{m.keys.Toggle, m.keys.Reset, m.keys.Quit}),
	)
}
