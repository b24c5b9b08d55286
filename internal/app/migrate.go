package app

import (
	"fmt"

	"github.com/FrogonXO/shopify-student-verify/internal/config"
	"github.com/FrogonXO/shopify-student-verify/internal/database"
)

// RunMigrationOnly applies the schema and exits. Used by the `migrate`
// subcommand so deploys can run migrations before the server comes up.
func RunMigrationOnly() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
