package cmd

import (
	"github.com/seatq/seatq/internal/config"
	"github.com/seatq/seatq/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Show or change project configuration",
	GroupID: "system",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(cfg)
		}

		output.Info("server:   %s", cfg.GetServerURL())
		output.Info("context:  %s", cfg.GetContext().String())
		output.Info("sync interval:  %s", cfg.GetSyncInterval())
		output.Info("probe interval: %s", cfg.GetProbeInterval())
		output.Info("sync timeout:   %s", cfg.GetSyncTimeout())
		output.Info("cache ttl:      %s", cfg.GetCacheTTL())
		output.Info("grace window:   %s", cfg.GetGraceWindow())
		output.Info("max retries:    %d", cfg.GetMaxRetryCount())
		output.Info("max queue size: %d", cfg.GetMaxQueueSize())
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set server URL, API key or chart context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if v, _ := cmd.Flags().GetString("server"); v != "" {
			cfg.ServerURL = v
		}
		if v, _ := cmd.Flags().GetString("api-key"); v != "" {
			cfg.APIKey = v
		}
		if v, _ := cmd.Flags().GetString("group"); v != "" {
			cfg.Context.Group = v
		}
		if v, _ := cmd.Flags().GetString("day"); v != "" {
			cfg.Context.Day = v
		}
		if v, _ := cmd.Flags().GetString("timeslot"); v != "" {
			cfg.Context.Timeslot = v
		}

		if err := config.Save(getBaseDir(), cfg); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("configuration saved")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd)
	configShowCmd.Flags().Bool("json", false, "Output as JSON")
	configSetCmd.Flags().String("server", "", "Reservation service URL")
	configSetCmd.Flags().String("api-key", "", "API key for the service")
	configSetCmd.Flags().String("group", "", "Default chart group")
	configSetCmd.Flags().String("day", "", "Default chart day")
	configSetCmd.Flags().String("timeslot", "", "Default chart timeslot")
}
