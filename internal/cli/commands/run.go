package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Start string
	End   string
}

// NewRunCommand creates the run command.
func NewRunCommand(d *Deps) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load the warehouse for a date range",
		Long: `Run the pipeline for an inclusive date range.

Without flags the trailing 30 days are loaded. Re-running a range is safe:
dimension rows keep their first-seen snapshot and fact rows are rewritten
with freshly computed values.`,
		Example: `  # Load the trailing 30 days
  dmersetl run

  # Reload a specific week
  dmersetl run --start 2026-08-17 --end 2026-08-23`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var start, end time.Time
			var err error
			if opts.Start != "" {
				start, err = time.Parse(warehouse.DateKeyLayout, opts.Start)
				if err != nil {
					return fmt.Errorf("invalid --start %q: %w", opts.Start, err)
				}
			}
			if opts.End != "" {
				end, err = time.Parse(warehouse.DateKeyLayout, opts.End)
				if err != nil {
					return fmt.Errorf("invalid --end %q: %w", opts.End, err)
				}
			}
			if start.IsZero() != end.IsZero() {
				return fmt.Errorf("--start and --end must be given together")
			}
			return runRange(cmd, d, start, end)
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.End, "end", "", "Range end (YYYY-MM-DD)")

	return cmd
}

func runRange(cmd *cobra.Command, d *Deps, start, end time.Time) error {
	ctx := cmd.Context()

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

	result, err := d.newProcessor(store, source, nil).Run(ctx, start, end, warehouse.TriggerManual)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s completed\n", result.RunID)
	fmt.Printf("  Range:              %s to %s\n",
		warehouse.DateKey(result.RangeStart), warehouse.DateKey(result.RangeEnd))
	fmt.Printf("  Dimensions created: %d\n", result.DimsCreated)
	fmt.Printf("  Facts upserted:     %d\n", result.FactsUpserted)
	if result.DispatchesSkipped > 0 {
		fmt.Printf("  Dispatches skipped: %d\n", result.DispatchesSkipped)
	}
	fmt.Printf("  Duration:           %s\n", result.Duration.Round(time.Millisecond))
	return nil
}
