package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seatq/seatq/internal/output"
	"github.com/seatq/seatq/internal/tui/monitor"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live TUI dashboard for queue and sync activity",
	Long: `Launch a live-updating TUI dashboard showing:
- Sync status: connectivity, queue depth, last sync times
- Pending operations: the replay queue in priority order
- Events: connectivity changes, replays, conflicts and failures

The background sync loop runs while the monitor is open, so queued
operations replay automatically whenever the service is reachable.

Key bindings:
  Tab/Shift+Tab  Switch panels
  1/2/3          Jump to panel
  j/k            Scroll active panel
  s              Trigger a sync pass
  r              Force refresh
  ?              Toggle help
  q              Quit`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, _, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		interval, _ := cmd.Flags().GetDuration("interval")
		if interval < 500*time.Millisecond {
			interval = 2 * time.Second
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go eng.Run(ctx)

		events, unsubscribe := eng.Subscribe()
		defer unsubscribe()

		model := monitor.NewModel(eng, events, interval)
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running monitor: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().Duration("interval", 2*time.Second, "Refresh interval (default 2s)")
}
