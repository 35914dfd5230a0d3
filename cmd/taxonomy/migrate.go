package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taxonomy/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.requireDB()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			v, err := database.MigrationVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "schema at version %d\n", v)
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the development taxonomy into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.requireDB()
			if err != nil {
				return err
			}
			if !a.cfg.IsDev() {
				return fmt.Errorf("seed is only available in development (APP_ENV=%s)", a.cfg.Env)
			}
			return database.Seed(cmd.Context(), db)
		},
	}
}
