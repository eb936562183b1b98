package cmd

import (
	"context"
	"time"

	"github.com/seatq/seatq/internal/output"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show connectivity, queue and sync state",
	GroupID: "sync",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, _, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		eng.ProbeOnce(ctx)

		status := eng.Status()
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(status)
		}

		if status.Online {
			output.Success("online")
		} else {
			output.Error("offline")
		}
		output.Info("queued operations:  %d", status.QueueLength)
		output.Info("last sync attempt:  %s", output.FormatTime(status.LastSyncAttempt))
		output.Info("last success:       %s", output.FormatTime(status.LastSuccessfulSync))
		if n := len(status.SyncErrors); n > 0 {
			last := status.SyncErrors[n-1]
			output.Warning("recent errors: %d (last at %s: %s)",
				n, output.FormatTime(last.Timestamp), last.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().Bool("json", false, "Output as JSON")
}
