package cmd

import (
	"github.com/seatq/seatq/internal/output"
	"github.com/spf13/cobra"
)

var walkinCmd = &cobra.Command{
	Use:     "walkin",
	Short:   "Assign seats to a walk-in party",
	Long: `Assign available seats to a walk-in party from the cached seat map.
With --consecutive the seats must form a contiguous run in one row; without
it, any available seats are taken in seat-ID order.

Walk-in assignment needs cached seat data: run 'seatq cache refresh' first
when working against a new chart.`,
	GroupID: "seats",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, cfg, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		n, _ := cmd.Flags().GetInt("seats")
		consecutive, _ := cmd.Flags().GetBool("consecutive")

		res, err := eng.WalkIn(chartFromFlags(cmd, cfg), n, consecutive)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(res)
		}
		output.ApplyResult(res)

		maybeSyncAfter(cmd, eng)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(walkinCmd)
	addChartFlags(walkinCmd)
	walkinCmd.Flags().IntP("seats", "n", 1, "Number of seats to assign")
	walkinCmd.Flags().Bool("consecutive", false, "Require a contiguous run of seats")
	walkinCmd.Flags().Bool("json", false, "Output as JSON")
	walkinCmd.Flags().Bool("no-sync", false, "Queue only; skip the immediate sync attempt")
}
