package monitor

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seatq/seatq/internal/engine"
)

// FetchData retrieves all data needed for the monitor display
func FetchData(e *engine.Engine) RefreshDataMsg {
	return RefreshDataMsg{
		Status:    e.Status(),
		Queue:     e.QueueSnapshot(),
		Timestamp: time.Now(),
	}
}

// fetchData returns a command that refreshes the panel data
func (m Model) fetchData() tea.Cmd {
	e := m.Engine
	return func() tea.Msg {
		return FetchData(e)
	}
}

// triggerSync returns a command that runs one sync pass. Errors surface
// through the engine's event feed, so the command itself reports nothing.
func (m Model) triggerSync() tea.Cmd {
	e := m.Engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		e.SyncNow(ctx)
		return FetchData(e)
	}
}
