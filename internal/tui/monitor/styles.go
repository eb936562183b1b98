package monitor

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/seatq/seatq/internal/engine"
	"github.com/seatq/seatq/internal/models"
)

var (
	// Base colors
	primaryColor   = lipgloss.Color("212")
	secondaryColor = lipgloss.Color("141")
	mutedColor     = lipgloss.Color("241")
	successColor   = lipgloss.Color("42")
	warningColor   = lipgloss.Color("214")
	errorColor     = lipgloss.Color("196")

	// Panel styles
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(primaryColor).
				Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	// Text styles
	subtleStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle      = lipgloss.NewStyle().Foreground(mutedColor)
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	onlineStyle  = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)

	// Operation status styles
	opStatusStyles = map[models.OpStatus]lipgloss.Style{
		models.OpPending: lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.OpRetry:   lipgloss.NewStyle().Foreground(warningColor),
		models.OpFailed:  lipgloss.NewStyle().Foreground(errorColor),
	}

	// Event kind badges
	eventStyles = map[engine.EventKind]lipgloss.Style{
		engine.EventConnectivity:  lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		engine.EventSyncStarted:   lipgloss.NewStyle().Foreground(secondaryColor),
		engine.EventSyncFinished:  lipgloss.NewStyle().Foreground(successColor),
		engine.EventOpSynced:      lipgloss.NewStyle().Foreground(successColor),
		engine.EventOpFailed:      lipgloss.NewStyle().Foreground(errorColor),
		engine.EventConflict:      lipgloss.NewStyle().Foreground(warningColor),
		engine.EventSyncEscalated: lipgloss.NewStyle().Foreground(errorColor).Bold(true),
	}
)

// formatOpStatus renders an operation status with color
func formatOpStatus(s models.OpStatus) string {
	style, ok := opStatusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(string(s))
}

// formatEventKind renders an event kind badge with color
func formatEventKind(k engine.EventKind) string {
	style, ok := eventStyles[k]
	if !ok {
		return string(k)
	}
	return style.Render(string(k))
}

// formatConnectivity renders the online/offline indicator
func formatConnectivity(online bool) string {
	if online {
		return onlineStyle.Render("ONLINE")
	}
	return offlineStyle.Render("OFFLINE")
}
