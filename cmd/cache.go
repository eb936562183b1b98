package cmd

import (
	"context"
	"sort"
	"time"

	"github.com/seatq/seatq/internal/output"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:     "cache",
	Short:   "Inspect and manage the seat cache",
	GroupID: "sync",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cached seat map for the current context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, cfg, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		chart := chartFromFlags(cmd, cfg)
		entry := eng.CachedSeats(chart)
		if entry == nil {
			output.Warning("no cached data for %s (try 'seatq cache refresh')", chart.String())
			return nil
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(entry)
		}

		output.Title("%s  (version %s, cached %s)",
			chart.String(), entry.Version, output.FormatTime(entry.CachedAt))

		ids := make([]string, 0, len(entry.SeatMap))
		for id := range entry.SeatMap {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			rec := entry.SeatMap[id]
			offline := ""
			if rec.OfflineReserved || rec.OfflineCheckin || rec.OfflineWalkin || rec.OfflineUpdated {
				offline = " " + output.FormatOffline()
			}
			extra := ""
			if rec.ReservedBy != "" {
				extra = "  " + rec.ReservedBy
			}
			output.Info("  %-8s %s%s%s", id, output.FormatSeatStatus(rec.DeriveStatus()), extra, offline)
		}
		return nil
	},
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch fresh seat data from the service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, cfg, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		chart := chartFromFlags(cmd, cfg)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := eng.RefreshCache(ctx, chart); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("refreshed %s", chart.String())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the cached seat map for the current context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, cfg, err := openEngine()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		chart := chartFromFlags(cmd, cfg)
		eng.ClearCache(chart)
		output.Success("cleared cache for %s", chart.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheShowCmd, cacheRefreshCmd, cacheClearCmd)
	addChartFlags(cacheShowCmd)
	addChartFlags(cacheRefreshCmd)
	addChartFlags(cacheClearCmd)
	cacheShowCmd.Flags().Bool("json", false, "Output as JSON")
}
