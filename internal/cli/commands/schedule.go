package commands

import (
	"github.com/spf13/cobra"

	"github.com/dmers-project/dmersetl/internal/metrics"
	"github.com/dmers-project/dmersetl/internal/schedule"
)

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline daemon with recurring jobs",
		Long: `Run as a daemon with recurring daily, weekly and monthly loads.

Prometheus metrics and a health check are served on the configured metrics
address while the daemon is up. Stop with SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := d.Config()

			store, err := d.openWarehouse(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			source, sourceDB, err := d.openSource(ctx)
			if err != nil {
				return err
			}
			defer sourceDB.Close()

			processor := d.newProcessor(store, source, metrics.NewPrometheus(nil))

			sched, err := schedule.New(processor, schedule.Config{
				DailyAt:   cfg.Schedule.DailyAt,
				WeeklyAt:  cfg.Schedule.WeeklyAt,
				MonthlyAt: cfg.Schedule.MonthlyAt,
				Timezone:  cfg.Schedule.Timezone,
			}, d.Logger())
			if err != nil {
				return err
			}

			server := schedule.NewMetricsServer(cfg.MetricsAddr, d.Logger())
			serverErr := make(chan error, 1)
			go func() {
				serverErr <- server.Run(ctx)
			}()

			if err := sched.Run(ctx); err != nil {
				return err
			}
			return <-serverErr
		},
	}
}
