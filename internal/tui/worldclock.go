package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oshokin/alarm-clock/internal/service/worldclock"
)

// worldTickMsg asks the world clock to redraw.
type worldTickMsg time.Time

// WorldClockModel shows the current time in several cities, refreshed every second.
type WorldClockModel struct {
	clock *worldclock.WorldClock
	keys  KeyMap
}

// NewWorldClockModel creates the view.
func NewWorldClockModel(w *worldclock.WorldClock) WorldClockModel {
	return WorldClockModel{clock: w, keys: DefaultKeyMap()}
}

func worldTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return worldTickMsg(t)
	})
}

// Init implements tea.Model.
func (m WorldClockModel) Init() tea.Cmd {
	return worldTick()
}

// Update implements tea.Model.
func (m WorldClockModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
	case worldTickMsg:
		return m, worldTick()
	}

	return m, nil
}

// View implements tea.Model.
func (m WorldClockModel) View() string {
	rows := []string{titleStyle.Render("World clock")}

	for _, reading := range m.clock.Now() {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			cityStyle.Render(reading.City),
			reading.Formatted(),
		))
	}

	rows = append(rows, dimStyle.Render("q to quit"))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
