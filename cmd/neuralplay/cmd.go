package main

import (
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/config"
	"github.com/spf13/cobra"
)

// NewCLI builds the root command.
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "neuralplay",
		Short:         "GPU neural video restoration and upscaling player",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd)
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level")
	rootCmd.PersistentFlags().StringP("selection", "s", "", "Architecture or preset to run (see list)")
	rootCmd.PersistentFlags().String("kernels", "", "Kernel library directory")
	rootCmd.PersistentFlags().String("target", "", "Display target resolution, WxH")

	rootCmd.AddCommand(
		newPlayCmd(),
		newBenchCmd(),
		newListCmd(),
		newPlanCmd(),
	)
	return rootCmd
}

func setupLogging(cmd *cobra.Command) {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig reads --config and applies the environment, then the command line flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if v, _ := cmd.Flags().GetString("selection"); v != "" {
		cfg.Engine.Selection = v
	}
	if v, _ := cmd.Flags().GetString("kernels"); v != "" {
		cfg.Kernels.Dir = v
	}
	if v, _ := cmd.Flags().GetString("target"); v != "" {
		d, err := config.ParseDimensions(v)
		if err != nil {
			return cfg, err
		}
		cfg.Engine.TargetWidth, cfg.Engine.TargetHeight = d.Width, d.Height
	}
	return cfg, cfg.Validate()
}
