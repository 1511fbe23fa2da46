package main

import (
	"fmt"

	"github.com/jonathan/justabill/internal/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	var (
		direction string
		steps     int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.RequireDatabase(); err != nil {
				return err
			}
			if err := db.Migrate(a.cfg.DatabaseURL, direction, steps); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", direction)
			return err
		},
	}

	cmd.Flags().StringVar(&direction, "direction", db.DirectionUp, "up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "Number of steps (0 = all)")
	return cmd
}
