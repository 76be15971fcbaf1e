package main

import (
	"log/slog"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

func rootCommand(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	root := &cobra.Command{
		Use:   "brackets",
		Short: "Tournament bracket server",
		Long: heredoc.Doc(`brackets runs tournaments: single elimination, double
			elimination qualifiers and round robin groups followed by a
			single elimination final phase.

			Configuration is read from the environment (and a .env file
			in the working directory): DATABASE_DRIVER, DATABASE_URL,
			SERVER_PORT, RANDOM_SEED, RATE_LIMIT_RPS, RATE_LIMIT_BURST,
			CORS_ALLOWED_ORIGINS and the optional R2_* settings used to
			archive bracket snapshots.`),
		Args: cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().Bool("debug", false, "Log at debug level")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			level.Set(slog.LevelDebug)
		}
	}

	root.AddCommand(serveCommand(logger))
	root.AddCommand(migrateCommand(logger))

	return root
}
