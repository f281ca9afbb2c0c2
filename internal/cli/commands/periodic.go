package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dmers-project/dmersetl/internal/etl"
)

// NewDailyCommand creates the daily command.
func NewDailyCommand(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Load today's data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end := etl.DayOf(time.Now())
			return runRange(cmd, d, start, end)
		},
	}
}

// NewWeeklyCommand creates the weekly command.
func NewWeeklyCommand(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "weekly",
		Short: "Reload the current week (Monday through Sunday)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end := etl.WeekOf(time.Now())
			return runRange(cmd, d, start, end)
		},
	}
}

// NewMonthlyCommand creates the monthly command.
func NewMonthlyCommand(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "monthly",
		Short: "Reload the current calendar month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end := etl.MonthOf(time.Now())
			return runRange(cmd, d, start, end)
		},
	}
}
