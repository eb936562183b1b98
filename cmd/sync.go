package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/seatq/seatq/internal/engine"
	"github.com/seatq/seatq/internal/output"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Replay queued operations against the service",
	Long: `Run one sync pass: probe connectivity, replay every queued operation in
priority order, resolve conflicts against fresh server data and report the
outcome. Operations that fail transiently stay queued for the next pass.`,
	GroupID: "sync",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, _, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		if eng.QueueLen() == 0 {
			output.Info("nothing to sync")
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		var res *engine.PassResult
		if force, _ := cmd.Flags().GetBool("force"); force {
			res, err = eng.ForceSync(ctx)
		} else {
			res, err = eng.SyncNow(ctx)
		}
		if err != nil {
			if errors.Is(err, engine.ErrOffline) {
				output.Warning("service unreachable; %d operation(s) remain queued", eng.QueueLen())
				return nil
			}
			output.Error("%v", err)
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(res)
		}

		output.Success("sync pass complete")
		output.Info("  succeeded: %d", res.Succeeded)
		if res.Conflicts > 0 {
			output.Warning("  conflicts resolved: %d", res.Conflicts)
		}
		if res.Retried > 0 {
			output.Warning("  retrying later: %d", res.Retried)
		}
		if res.Failed > 0 {
			output.Error("  dropped after retries: %d", res.Failed)
		}
		if res.Remaining > 0 {
			output.Subtle("  still queued: %d", res.Remaining)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Bool("force", false, "Clear an escalation hold before syncing")
	syncCmd.Flags().Bool("json", false, "Output as JSON")
}
