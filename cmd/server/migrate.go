package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kedarnelavelli/payment-service/internal/infra/database"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status|version]",
	Short:     "Apply or inspect database schema migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status", "version"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	command := "up"
	if len(args) == 1 {
		command = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver == "memory" {
		return errors.New("migrate: the memory driver has no schema")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(cmd.Context(), db, command); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: ok\n", command)
	return nil
}
