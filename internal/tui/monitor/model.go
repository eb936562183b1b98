package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/seatq/seatq/internal/engine"
	"github.com/seatq/seatq/internal/models"
)

// Panel represents which panel is active
type Panel int

const (
	PanelStatus Panel = iota
	PanelQueue
	PanelEvents
)

// maxFeed bounds the retained event feed
const maxFeed = 100

// Model is the main Bubble Tea model for the monitor TUI
type Model struct {
	Engine *engine.Engine

	// Window dimensions
	Width  int
	Height int

	// Panel data
	Status models.EngineStatus
	Queue  []models.Operation
	Feed   []engine.Event

	// UI state
	ActivePanel  Panel
	ScrollOffset map[Panel]int
	ShowHelp     bool
	LastRefresh  time.Time

	// Configuration
	RefreshInterval time.Duration

	Spinner spinner.Model

	events <-chan engine.Event
}

// MinWidth is the minimum terminal width for proper display
const MinWidth = 40

// MinHeight is the minimum terminal height for proper display
const MinHeight = 12

// TickMsg triggers a data refresh
type TickMsg time.Time

// RefreshDataMsg carries refreshed data
type RefreshDataMsg struct {
	Status    models.EngineStatus
	Queue     []models.Operation
	Timestamp time.Time
}

// EventMsg wraps one engine event for the feed panel
type EventMsg engine.Event

// NewModel creates a new monitor model. The caller owns the event
// subscription and its cancel func.
func NewModel(e *engine.Engine, events <-chan engine.Event, interval time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		Engine:          e,
		RefreshInterval: interval,
		ScrollOffset:    make(map[Panel]int),
		ActivePanel:     PanelStatus,
		Spinner:         sp,
		events:          events,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchData(),
		m.scheduleTick(),
		m.listenEvents(),
		m.Spinner.Tick,
	)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case TickMsg:
		return m, tea.Batch(m.fetchData(), m.scheduleTick())

	case RefreshDataMsg:
		m.Status = msg.Status
		m.Queue = msg.Queue
		m.LastRefresh = msg.Timestamp
		return m, nil

	case EventMsg:
		m.Feed = append(m.Feed, engine.Event(msg))
		if len(m.Feed) > maxFeed {
			m.Feed = m.Feed[len(m.Feed)-maxFeed:]
		}
		// An event usually means state moved; refresh eagerly.
		return m, tea.Batch(m.fetchData(), m.listenEvents())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey processes key input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		m.ActivePanel = (m.ActivePanel + 1) % 3
		return m, nil

	case "shift+tab":
		m.ActivePanel = (m.ActivePanel + 2) % 3
		return m, nil

	case "1":
		m.ActivePanel = PanelStatus
		return m, nil

	case "2":
		m.ActivePanel = PanelQueue
		return m, nil

	case "3":
		m.ActivePanel = PanelEvents
		return m, nil

	case "j", "down":
		m.ScrollOffset[m.ActivePanel]++
		return m, nil

	case "k", "up":
		if m.ScrollOffset[m.ActivePanel] > 0 {
			m.ScrollOffset[m.ActivePanel]--
		}
		return m, nil

	case "s":
		// Manual sync; outcome lands in the event feed.
		return m, m.triggerSync()

	case "r":
		return m, m.fetchData()

	case "?":
		m.ShowHelp = !m.ShowHelp
		return m, nil
	}

	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	return m.renderView()
}

// scheduleTick returns a command that sends a TickMsg after the refresh interval
func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// listenEvents blocks on the engine event channel and forwards one event
func (m Model) listenEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return nil
		}
		return EventMsg(ev)
	}
}
