package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(d *Deps) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent pipeline runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := d.openWarehouse(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRecentRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded")
				return nil
			}

			fmt.Printf("%-36s  %-9s  %-9s  %-21s  %8s  %6s  %s\n",
				"RUN", "TRIGGER", "STATUS", "RANGE", "DIMS", "FACTS", "STARTED")
			for _, r := range runs {
				fmt.Printf("%-36s  %-9s  %-9s  %s/%s  %8d  %6d  %s\n",
					r.ID, r.TriggeredBy, r.Status, r.RangeStart, r.RangeEnd,
					r.DimsCreated, r.FactsUpserted,
					r.StartedAt.UTC().Format(time.RFC3339))
				if r.Error != "" {
					fmt.Printf("    error: %s\n", r.Error)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}
