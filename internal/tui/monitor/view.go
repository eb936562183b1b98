package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/seatq/seatq/internal/engine"
)

// renderView renders the complete TUI view
func (m Model) renderView() string {
	if m.Width == 0 || m.Height == 0 {
		return "Loading..."
	}

	if m.Width < MinWidth || m.Height < MinHeight {
		return m.renderCompact()
	}

	if m.ShowHelp {
		return m.renderHelp()
	}

	availableHeight := m.Height - 3 // footer
	panelHeight := availableHeight / 3

	status := m.renderStatusPanel(panelHeight)
	queue := m.renderQueuePanel(panelHeight)
	events := m.renderEventsPanel(panelHeight)

	panels := lipgloss.JoinVertical(lipgloss.Left, status, queue, events)
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, panels, footer)
}

// renderCompact renders a minimal view for small terminals
func (m Model) renderCompact() string {
	var s strings.Builder

	s.WriteString("seatq monitor (resize for full view)\n\n")
	s.WriteString(fmt.Sprintf("%s | queued: %d\n",
		formatConnectivity(m.Status.Online), m.Status.QueueLength))
	s.WriteString(fmt.Sprintf("last sync: %s\n", formatMaybeTime(m.Status.LastSuccessfulSync)))
	s.WriteString("\nq:quit s:sync r:refresh ?:help")

	return s.String()
}

func (m Model) renderHelp() string {
	help := `seatq monitor

  tab / shift+tab  cycle panels
  1 / 2 / 3        jump to panel
  j / k            scroll active panel
  s                trigger sync pass
  r                refresh now
  ?                toggle this help
  q                quit`
	return helpStyle.Render(help)
}

func (m Model) renderStatusPanel(height int) string {
	var lines []string

	syncing := ""
	if m.Status.SyncInProgress {
		syncing = " " + m.Spinner.View() + subtleStyle.Render("syncing")
	}
	lines = append(lines, fmt.Sprintf("%s%s", formatConnectivity(m.Status.Online), syncing))
	lines = append(lines, fmt.Sprintf("Queued operations: %d", m.Status.QueueLength))
	lines = append(lines, fmt.Sprintf("Last attempt:  %s", formatMaybeTime(m.Status.LastSyncAttempt)))
	lines = append(lines, fmt.Sprintf("Last success:  %s", formatMaybeTime(m.Status.LastSuccessfulSync)))

	if n := len(m.Status.SyncErrors); n > 0 {
		last := m.Status.SyncErrors[n-1]
		lines = append(lines, fmt.Sprintf("Errors: %d, last: %s",
			n, truncate(last.Error, m.Width-20)))
	}

	return m.renderPanel(PanelStatus, "Sync Status", lines, height)
}

func (m Model) renderQueuePanel(height int) string {
	var lines []string
	for _, op := range m.Queue {
		retry := ""
		if op.RetryCount > 0 {
			retry = fmt.Sprintf(" retry=%d", op.RetryCount)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s %v%s",
			formatOpStatus(op.Status),
			subtleStyle.Render(op.ID),
			op.Type, op.SeatIDs, retry))
	}
	if len(lines) == 0 {
		lines = append(lines, subtleStyle.Render("queue empty"))
	}

	title := fmt.Sprintf("Pending Operations (%d)", len(m.Queue))
	return m.renderPanel(PanelQueue, title, lines, height)
}

func (m Model) renderEventsPanel(height int) string {
	var lines []string
	// Newest first.
	for i := len(m.Feed) - 1; i >= 0; i-- {
		ev := m.Feed[i]
		lines = append(lines, formatEvent(ev))
	}
	if len(lines) == 0 {
		lines = append(lines, subtleStyle.Render("no events yet"))
	}

	return m.renderPanel(PanelEvents, "Events", lines, height)
}

func formatEvent(ev engine.Event) string {
	ts := timestampStyle.Render(ev.Time.Format("15:04:05"))
	badge := formatEventKind(ev.Kind)

	switch ev.Kind {
	case engine.EventConnectivity:
		return fmt.Sprintf("%s %s %s", ts, badge, formatConnectivity(ev.Online))
	case engine.EventSyncFinished:
		return fmt.Sprintf("%s %s ok=%d retry=%d failed=%d conflicts=%d",
			ts, badge, ev.Succeeded, ev.Retried, ev.Failed, ev.Conflicts)
	default:
		parts := []string{ts, badge}
		if ev.OpID != "" {
			parts = append(parts, subtleStyle.Render(ev.OpID))
		}
		if ev.Message != "" {
			parts = append(parts, ev.Message)
		}
		return strings.Join(parts, " ")
	}
}

// renderPanel wraps lines in a bordered panel, applying scroll and height
func (m Model) renderPanel(p Panel, title string, lines []string, height int) string {
	style := panelStyle
	if m.ActivePanel == p {
		style = activePanelStyle
	}

	content := height - 3 // border + title
	if content < 1 {
		content = 1
	}

	offset := m.ScrollOffset[p]
	if offset > len(lines)-1 {
		offset = max(0, len(lines)-1)
	}
	end := offset + content
	if end > len(lines) {
		end = len(lines)
	}
	visible := lines[offset:end]

	body := panelTitleStyle.Render(title) + "\n" + strings.Join(visible, "\n")
	return style.Width(m.Width - 4).Render(body)
}

func (m Model) renderFooter() string {
	left := helpStyle.Render("tab:panels  s:sync  j/k:scroll  ?:help  q:quit")
	right := timestampStyle.Render("refreshed " + m.LastRefresh.Format("15:04:05"))
	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func formatMaybeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("15:04:05")
}

func truncate(s string, n int) string {
	if n < 4 || len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
