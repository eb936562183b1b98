package cmd

import (
	"github.com/seatq/seatq/internal/output"
	"github.com/spf13/cobra"
)

var reserveCmd = &cobra.Command{
	Use:     "reserve <seat-id>...",
	Short:   "Reserve seats",
	Long:    `Reserve one or more seats in the current chart context. The reservation applies to the local cache immediately and is queued for replay against the service.`,
	GroupID: "seats",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, cfg, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		by, _ := cmd.Flags().GetString("by")
		res, err := eng.Reserve(chartFromFlags(cmd, cfg), args, by)
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
	rootCmd.AddCommand(reserveCmd)
	addChartFlags(reserveCmd)
	reserveCmd.Flags().String("by", "", "Name to reserve under")
	reserveCmd.Flags().Bool("json", false, "Output as JSON")
	reserveCmd.Flags().Bool("no-sync", false, "Queue only; skip the immediate sync attempt")
}
