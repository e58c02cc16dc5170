package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"superviseme/backend/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateDown,
}

var migrateDownSteps int

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	sqlDB, err := env.db.DB()
	if err != nil {
		return err
	}
	if err := database.RunMigrations(sqlDB, env.logger); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	if migrateDownSteps <= 0 {
		return fmt.Errorf("--steps must be positive")
	}
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	sqlDB, err := env.db.DB()
	if err != nil {
		return err
	}
	if err := database.RollbackMigrations(sqlDB, migrateDownSteps, env.logger); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", migrateDownSteps)
	return nil
}
