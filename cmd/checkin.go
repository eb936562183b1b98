package cmd

import (
	"github.com/seatq/seatq/internal/output"
	"github.com/spf13/cobra"
)

var checkinCmd = &cobra.Command{
	Use:     "checkin <seat-id>...",
	Short:   "Check in reserved seats",
	GroupID: "seats",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, cfg, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		res, err := eng.CheckIn(chartFromFlags(cmd, cfg), args)
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
	rootCmd.AddCommand(checkinCmd)
	addChartFlags(checkinCmd)
	checkinCmd.Flags().Bool("json", false, "Output as JSON")
	checkinCmd.Flags().Bool("no-sync", false, "Queue only; skip the immediate sync attempt")
}
