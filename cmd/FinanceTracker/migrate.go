package main

import (
	"github.com/rs/zerolog/log"
	database "github.com/sebuszqo/FinanceTracker/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateDatabase(); err != nil {
			return logFatal(err, "invalid configuration")
		}

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return logFatal(err, "could not apply migrations")
		}
		log.Info().Msg("migrations applied")
		return nil
	},
}
