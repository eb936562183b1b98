package cmd

import (
	"fmt"

	"github.com/seatq/seatq/internal/output"
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:     "queue",
	Short:   "Inspect and manage the operation queue",
	GroupID: "sync",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued operations in replay order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, _, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		ops := eng.QueueSnapshot()
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(ops)
		}

		if len(ops) == 0 {
			output.Info("queue empty")
			return nil
		}
		output.Title("%d queued operation(s)", len(ops))
		for _, op := range ops {
			retry := ""
			if op.RetryCount > 0 {
				retry = fmt.Sprintf(" (retries: %d)", op.RetryCount)
			}
			output.Info("  [p%d] %s %s %s %v%s",
				op.Priority, op.ID, op.Type, op.Context.String(), op.SeatIDs, retry)
		}
		return nil
	},
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard all queued operations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, _, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		n := eng.ClearQueue()
		output.Success("dropped %d operation(s)", n)
		return nil
	},
}

var queueLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent enqueue history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, _, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := eng.RecentOpLog(limit)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(entries)
		}

		if len(entries) == 0 {
			output.Info("no history")
			return nil
		}
		for _, e := range entries {
			output.Info("%s  %-28s %-26s %s (queue: %d)",
				output.FormatTime(e.LoggedAt), e.OpID, e.OpType, e.ContextKey, e.QueueLength)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueListCmd, queueClearCmd, queueLogCmd)
	queueListCmd.Flags().Bool("json", false, "Output as JSON")
	queueLogCmd.Flags().Int("limit", 20, "Maximum entries to show")
	queueLogCmd.Flags().Bool("json", false, "Output as JSON")
}
