package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-brackets/brackets"
	"github.com/Dosada05/tournament-brackets/config"
	"github.com/Dosada05/tournament-brackets/db"
	"github.com/Dosada05/tournament-brackets/handlers"
	"github.com/Dosada05/tournament-brackets/middleware"
	"github.com/Dosada05/tournament-brackets/repositories"
	"github.com/Dosada05/tournament-brackets/routes"
	"github.com/Dosada05/tournament-brackets/services"
	"github.com/Dosada05/tournament-brackets/storage"
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func serveCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Long: heredoc.Doc(`serve starts the JSON API and the websocket endpoint that
			pushes bracket changes to /ws/tournaments/{id}. With
			--migrate the schema is created before the server starts.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return serve(cmd.Context(), logger, migrate)
		},
	}
	cmd.Flags().Bool("migrate", false, "Create the schema before serving")
	return cmd
}

func serve(ctx context.Context, logger *slog.Logger, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("driver", cfg.DatabaseDriver),
		slog.Bool("snapshots", cfg.SnapshotsEnabled()))

	dbConn, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if migrate {
		if err := db.Migrate(ctx, dbConn, cfg.DatabaseDriver); err != nil {
			return err
		}
		logger.Info("database schema migrated")
	}

	var snapshots services.SnapshotStore
	if cfg.SnapshotsEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, cfg.R2)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		writer, err := storage.NewSnapshotWriter(uploader)
		if err != nil {
			return err
		}
		snapshots = writer
		logger.Info("Cloudflare R2 snapshot storage initialized", slog.String("bucket", cfg.R2.BucketName))
	}

	hubDone := make(chan struct{})
	defer close(hubDone)
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(hubDone)

	tournamentRepo := repositories.NewTournamentRepository(dbConn)
	playerRepo := repositories.NewPlayerRepository(dbConn)
	stageRepo := repositories.NewStageRepository(dbConn)
	matchRepo := repositories.NewMatchRepository(dbConn)

	shuffler := brackets.NewRandShuffler(cfg.RandomSeed)
	bracketService := services.NewBracketService(dbConn, tournamentRepo, playerRepo, stageRepo, matchRepo, shuffler, wsHub, snapshots, logger)
	matchService := services.NewMatchService(dbConn, tournamentRepo, playerRepo, stageRepo, matchRepo, wsHub, snapshots, logger)
	standingsService := services.NewStandingsService(tournamentRepo, playerRepo, stageRepo, matchRepo, logger)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, playerRepo, stageRepo, matchRepo, bracketService, wsHub, snapshots, logger)

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Tournament: handlers.NewTournamentHandler(tournamentService, logger),
		Bracket:    handlers.NewBracketHandler(bracketService, standingsService, matchService, logger),
		Match:      handlers.NewMatchHandler(matchService, logger),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins, logger),
	}, middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger), cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
	}
	return nil
}
