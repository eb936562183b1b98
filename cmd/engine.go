package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seatq/seatq/internal/config"
	"github.com/seatq/seatq/internal/engine"
	"github.com/seatq/seatq/internal/models"
	"github.com/seatq/seatq/internal/output"
	"github.com/seatq/seatq/internal/remote"
	"github.com/seatq/seatq/internal/store"
	"github.com/spf13/cobra"
)

// openEngine builds the engine for one-shot command use: config, store,
// remote client, restored queue and sync state. The caller closes the store.
func openEngine() (*engine.Engine, *store.SQLiteStore, *config.Config, error) {
	cfg, err := config.Load(getBaseDir())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	serverURL := cfg.GetServerURL()
	if serverURL == "" {
		return nil, nil, nil, fmt.Errorf("no server configured; run 'seatq config set --server URL' or set SEATQ_SERVER_URL")
	}

	st, err := store.Open(getBaseDir())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open state store: %w", err)
	}

	api := remote.New(serverURL, cfg.GetAPIKey())
	eng, err := engine.New(st, api, engine.OptionsFromConfig(cfg))
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}
	return eng, st, cfg, nil
}

// addChartFlags registers the chart context override flags.
func addChartFlags(cmd *cobra.Command) {
	cmd.Flags().String("group", "", "Chart group (overrides config)")
	cmd.Flags().String("day", "", "Chart day (overrides config)")
	cmd.Flags().String("timeslot", "", "Chart timeslot (overrides config)")
}

// maybeSyncAfter attempts one sync pass after a seat command, unless
// --no-sync was given. Being offline is reported, not an error.
func maybeSyncAfter(cmd *cobra.Command, eng *engine.Engine) {
	if noSync, _ := cmd.Flags().GetBool("no-sync"); noSync {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := eng.SyncNow(ctx)
	if err != nil {
		if errors.Is(err, engine.ErrOffline) {
			output.Subtle("  offline; will sync on next run")
		} else {
			output.Warning("sync: %v", err)
		}
		return
	}
	output.Subtle("  synced: %d ok, %d retrying, %d failed, %d conflicts",
		res.Succeeded, res.Retried, res.Failed, res.Conflicts)
}

// chartFromFlags resolves the chart context: flags > env > config.
func chartFromFlags(cmd *cobra.Command, cfg *config.Config) models.Context {
	chart := cfg.GetContext()
	if v, _ := cmd.Flags().GetString("group"); v != "" {
		chart.Group = v
	}
	if v, _ := cmd.Flags().GetString("day"); v != "" {
		chart.Day = v
	}
	if v, _ := cmd.Flags().GetString("timeslot"); v != "" {
		chart.Timeslot = v
	}
	return chart
}
