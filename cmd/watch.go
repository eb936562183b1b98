package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/seatq/seatq/internal/engine"
	"github.com/seatq/seatq/internal/output"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the background sync loop in the foreground",
	Long: `Probe connectivity and replay queued operations on their configured
intervals until interrupted. Useful on a box that stays up while operators
queue work from other terminals.`,
	GroupID: "sync",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, _, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		events, unsubscribe := eng.Subscribe()
		defer unsubscribe()
		go func() {
			for ev := range events {
				switch ev.Kind {
				case engine.EventConnectivity:
					if ev.Online {
						output.Success("online")
					} else {
						output.Warning("offline")
					}
				case engine.EventSyncFinished:
					output.Info("sync: %d ok, %d retrying, %d failed, %d conflicts",
						ev.Succeeded, ev.Retried, ev.Failed, ev.Conflicts)
				case engine.EventSyncEscalated:
					output.Error("%s", ev.Message)
				}
			}
		}()

		output.Info("watching; ctrl-c to stop")
		eng.Run(ctx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
