package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskflow/helpdesk/internal/persistence"
)

var (
	migrateUp   = persistence.RunMigrations
	migrateDown = persistence.RollbackMigrations

	migrateSteps int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back applied migrations",
	Args:  cobra.NoArgs,
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "Number of migrations to roll back")

	migrateUpCmd.RunE = runMigrateUp
	migrateDownCmd.RunE = runMigrateDown
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	return withEnv(cmd, func(_ context.Context, e *Env) error {
		if err := migrateUp(e.DSN, e.Logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	})
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	if migrateSteps < 1 {
		return fmt.Errorf("--steps must be at least 1")
	}
	return withEnv(cmd, func(_ context.Context, e *Env) error {
		if err := migrateDown(e.DSN, migrateSteps, e.Logger); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", migrateSteps)
		return nil
	})
}
