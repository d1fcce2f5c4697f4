package cmd

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	migrations "github.com/frahmantamala/rti-filing/db"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "Apply the embedded SQL migrations",
	}
	migrateRollback bool
	migrateStatus   bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print migration status and exit")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch {
	case migrateStatus:
		return goose.StatusContext(ctx, db, migrations.MigrationsDir)
	case migrateRollback:
		if err := goose.DownContext(ctx, db, migrations.MigrationsDir); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		log.Info("rolled back latest migration")
	default:
		if err := goose.UpContext(ctx, db, migrations.MigrationsDir); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		log.Info("migrations applied")
	}
	return nil
}
