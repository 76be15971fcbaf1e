package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-brackets/config"
	"github.com/Dosada05/tournament-brackets/db"
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

func migrateCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Long: heredoc.Doc(`migrate creates the tournaments, players, stages and
			matches tables for the configured DATABASE_DRIVER. Tables
			that already exist are left untouched.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			conn, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, 5*time.Second)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := db.Migrate(ctx, conn, cfg.DatabaseDriver); err != nil {
				return err
			}
			logger.Info("database schema is up to date", slog.String("driver", cfg.DatabaseDriver))
			return nil
		},
	}
}
