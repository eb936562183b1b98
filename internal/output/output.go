// Package output provides styled terminal output helpers (success, error,
// warning, seat/operation formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/seatq/seatq/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	statusStyles = map[models.SeatStatus]lipgloss.Style{
		models.SeatAvailable:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.SeatReserved:    lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.SeatCheckedIn:   lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		models.SeatWalkIn:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.SeatUnavailable: lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// Title prints a bold heading
func Title(format string, args ...interface{}) {
	fmt.Println(titleStyle.Render(fmt.Sprintf(format, args...)))
}

// Subtle prints dimmed secondary text
func Subtle(format string, args ...interface{}) {
	fmt.Println(subtleStyle.Render(fmt.Sprintf(format, args...)))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// FormatSeatStatus formats a seat status with color
func FormatSeatStatus(s models.SeatStatus) string {
	style, ok := statusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(fmt.Sprintf("[%s]", s))
}

// FormatOffline renders the offline/queued marker
func FormatOffline() string {
	return offlineStyle.Render("[offline]")
}

// FormatTime renders a timestamp, or "never" for the zero value
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// ApplyResult prints the outcome of an optimistic local apply.
func ApplyResult(res *models.ApplyResult) {
	if res.LocalApply {
		Success("%s %s", res.Message, FormatOffline())
	} else {
		Warning("%s %s", res.Message, FormatOffline())
	}
	if len(res.SeatIDs) > 0 {
		Subtle("  seats: %v", res.SeatIDs)
	}
	for _, w := range res.Warnings {
		Warning("  %s", w)
	}
	Subtle("  queued as %s", res.OperationID)
}
