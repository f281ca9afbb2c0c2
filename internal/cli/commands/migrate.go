package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply warehouse schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := d.openWarehouse(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Println("Warehouse schema is up to date")
			return nil
		},
	}
}
