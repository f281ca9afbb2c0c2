package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmers-project/dmersetl/internal/reports"
)

// NewReportCommand creates the report command.
func NewReportCommand(d *Deps) *cobra.Command {
	var days int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:       "report [dashboard|trends|regional|performance|inventory]",
		Short:     "Query the warehouse for a summary report",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"dashboard", "trends", "regional", "performance", "inventory"},
		Example: `  # Today's dashboard
  dmersetl report dashboard

  # Unit performance over the last 90 days as JSON
  dmersetl report performance --days 90 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "dashboard"
			if len(args) > 0 {
				kind = args[0]
			}

			ctx := cmd.Context()
			store, err := d.openWarehouse(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			r := reports.New(store.DB(), store.Driver(), d.Logger())
			now := time.Now()
			start := now.AddDate(0, 0, -days)

			switch kind {
			case "dashboard":
				report, err := r.DashboardSummary(ctx, now)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(report)
				}
				printDashboard(report)
			case "trends":
				report, err := r.IncidentTrends(ctx, start, now)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(report)
				}
				printTrends(report)
			case "regional":
				summaries, err := r.RegionalAnalysis(ctx, start, now)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(summaries)
				}
				printRegional(summaries)
			case "performance":
				units, err := r.ResponsePerformance(ctx, start, now)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(units)
				}
				printPerformance(units)
			case "inventory":
				summaries, err := r.InventoryAnalysis(ctx, start, now)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(summaries)
				}
				printInventory(summaries)
			default:
				return fmt.Errorf("unknown report: %s", kind)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Lookback window in days")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDashboard(dash reports.Dashboard) {
	fmt.Printf("Dashboard for %s\n\n", dash.Date)
	fmt.Printf("Today:     %d incidents (%d new, %d resolved)\n",
		dash.TodayIncidents, dash.TodayNew, dash.TodayResolved)
	fmt.Printf("This week: %d incidents (%.1f/day)\n\n",
		dash.WeeklyIncidents, dash.WeeklyDailyAverage)

	if len(dash.TopRegions) > 0 {
		fmt.Println("Busiest regions today:")
		for _, rc := range dash.TopRegions {
			fmt.Printf("  %-25s %d\n", rc.Region, rc.Incidents)
		}
		fmt.Println()
	}

	c := dash.Categories
	fmt.Printf("By category: fire=%d flood=%d accident=%d violence=%d medical=%d natural=%d other=%d\n",
		c.Fire, c.Flood, c.Accident, c.Violence, c.Medical, c.Natural, c.Other)
}

func printTrends(report reports.TrendsReport) {
	fmt.Printf("%-12s  %6s  %5s  %9s  %9s  %13s\n",
		"DATE", "TOTAL", "NEW", "RESOLVED", "SEVERITY", "RESPONSE(MIN)")
	for _, p := range report.Points {
		fmt.Printf("%-12s  %6d  %5d  %9d  %9.2f  %13.1f\n",
			p.Date, p.TotalIncidents, p.NewIncidents, p.ResolvedIncidents,
			p.AvgSeverity, p.AvgResponseTime)
	}
	fmt.Printf("\n%d incidents over %d days (%.1f/day)\n",
		report.TotalIncidents, len(report.Points), report.AvgDailyIncidents)
}

func printRegional(summaries []reports.RegionSummary) {
	fmt.Printf("%-25s  %6s  %9s  %13s  %9s  %10s  %9s\n",
		"REGION", "TOTAL", "SEVERITY", "RESPONSE(MIN)", "SHELTERS", "OCCUPANCY", "SPREAD_KM")
	for _, s := range summaries {
		fmt.Printf("%-25s  %6d  %9.2f  %13.1f  %9d  %9.1f%%  %9.1f\n",
			s.Region, s.TotalIncidents, s.AvgSeverity, s.AvgResponseTime,
			s.TotalShelters, s.AvgOccupancyRate, s.IncidentSpreadKM)
	}
}

func printPerformance(units []reports.UnitPerformance) {
	fmt.Printf("%-25s  %-10s  %9s  %12s  %12s  %8s\n",
		"UNIT", "TYPE", "DISPATCHES", "RESPONSE(MIN)", "ON_SCENE(MIN)", "SUCCESS")
	for _, u := range units {
		fmt.Printf("%-25s  %-10s  %9d  %12.1f  %12.1f  %7.1f%%\n",
			u.UnitName, u.UnitType, u.TotalDispatches,
			u.AvgResponseTime, u.AvgOnSceneTime, u.SuccessRate)
	}
}

func printInventory(summaries []reports.InventorySummary) {
	fmt.Printf("%-25s  %10s  %9s  %12s  %9s\n",
		"REGION", "ITEMS(AVG)", "LOW_STOCK", "OUT_OF_STOCK", "OCCUPANCY")
	for _, s := range summaries {
		fmt.Printf("%-25s  %10.0f  %9.1f  %12.1f  %8.1f%%\n",
			s.Region, s.AvgTotalItems, s.AvgLowStock, s.AvgOutOfStock, s.AvgOccupancyPct)
	}
}
