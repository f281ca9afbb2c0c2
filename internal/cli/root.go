// Package cli provides the command-line interface for the pipeline.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmers-project/dmersetl/internal/cli/commands"
	"github.com/dmers-project/dmersetl/internal/cli/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dmersetl",
		Short: "DMERS analytics warehouse pipeline",
		Long: `dmersetl loads the emergency-management analytics warehouse.

It extracts incidents, dispatches, shelters and stock levels from the
operational database and maintains a dimensional star schema for trend,
regional, response and inventory reporting. Loads run on demand or on a
daily/weekly/monthly schedule.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./dmersetl.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	deps := &commands.Deps{
		Config: func() *config.Config { return cfg },
		Logger: func() *slog.Logger { return logger },
	}

	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewRunCommand(deps))
	rootCmd.AddCommand(commands.NewDailyCommand(deps))
	rootCmd.AddCommand(commands.NewWeeklyCommand(deps))
	rootCmd.AddCommand(commands.NewMonthlyCommand(deps))
	rootCmd.AddCommand(commands.NewScheduleCommand(deps))
	rootCmd.AddCommand(commands.NewMigrateCommand(deps))
	rootCmd.AddCommand(commands.NewStatusCommand(deps))
	rootCmd.AddCommand(commands.NewReportCommand(deps))

	return rootCmd
}

// Execute runs the root command with a signal-aware context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
