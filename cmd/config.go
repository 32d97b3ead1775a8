package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/headless/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "provider: %s\n", cfg.ClientType())
		spawn := cfg.SpawnConfig()
		fmt.Fprintf(cmd.OutOrStdout(), "model: %s\n", spawn.Model)
		fmt.Fprintf(cmd.OutOrStdout(), "session file: %s\n", cfg.Session.File)
		fmt.Fprintf(cmd.OutOrStdout(), "session dir: %s\n", cfg.Session.Dir)
		fmt.Fprintf(cmd.OutOrStdout(), "queue: attempts=%d backoff=%ds budget=$%.2f\n",
			cfg.Queue.MaxAttempts, cfg.Queue.BackoffSeconds, cfg.Queue.BudgetUSD)
		fmt.Fprintf(cmd.OutOrStdout(), "tracing: enabled=%t exporter=%s\n",
			cfg.Tracing.Enabled, cfg.Tracing.Exporter)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a config value using a dotted key",
	Long: `Set a single value in the config file, preserving comments in
untouched sections. Keys use dotted paths, for example:

  headless config set provider codex
  headless config set codex.sandbox_mode workspace-write
  headless config set queue.max_attempts 5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.SetValue(path, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "set %s = %s in %s\n", args[0], args[1], path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
