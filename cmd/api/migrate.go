package main

import (
	"fmt"

	"pamazon/internal/database"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

var migrateFlags = map[string]cobraflags.Flag{
	migrationsDirFlag: &cobraflags.StringFlag{
		Name:  migrationsDirFlag,
		Value: "",
		Usage: "Directory holding goose migrations (defaults to MIGRATIONS_DIR)",
	},
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|status]",
		Short: "Apply or inspect database migrations",
		Long: `Apply pending goose migrations or print their status.

Default behavior (no subcommand): apply pending migrations.`,
		RunE: migrateUpCommand,
	}
	cobraflags.RegisterMap(cmd, migrateFlags)

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  migrateUpCommand,
	}
	status := &cobra.Command{
		Use:   "status",
		Short: "Print the applied and pending migrations",
		RunE:  migrateStatusCommand,
	}
	cmd.AddCommand(up, status)
	return cmd
}

func migrateUpCommand(_ *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	dbService, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbService.Close()

	return database.RunMigrations(dbService.DB(), migrationsDir(cfg, migrateFlags[migrationsDirFlag].GetString()), log)
}

func migrateStatusCommand(_ *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	dbService, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbService.Close()

	return database.MigrationStatus(dbService.DB(), migrationsDir(cfg, migrateFlags[migrationsDirFlag].GetString()))
}
