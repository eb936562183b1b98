package cmd

import (
	"fmt"
	"strings"

	"github.com/seatq/seatq/internal/output"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:     "update <seat-id> -f key=value [-f key=value...]",
	Short:   "Update seat metadata",
	Long:    `Patch arbitrary metadata fields on one seat record, e.g. a guest name or a note. Fields merge into the seat's existing metadata.`,
	GroupID: "seats",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetStringArray("field")
		fields := make(map[string]string, len(raw))
		for _, kv := range raw {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				return fmt.Errorf("invalid field %q, want key=value", kv)
			}
			fields[k] = v
		}

		eng, st, cfg, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		res, err := eng.Update(chartFromFlags(cmd, cfg), args[0], fields)
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
	rootCmd.AddCommand(updateCmd)
	addChartFlags(updateCmd)
	updateCmd.Flags().StringArrayP("field", "f", nil, "Field to set (key=value), repeatable")
	updateCmd.Flags().Bool("json", false, "Output as JSON")
	updateCmd.Flags().Bool("no-sync", false, "Queue only; skip the immediate sync attempt")
}
