// Package main is the entry point for the Kufr game server.
package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kufr-game/internal/config"
	"kufr-game/internal/game/guess"
	"kufr-game/internal/pkg/db"
	"kufr-game/internal/pkg/lock"
	"kufr-game/internal/repository"
	"kufr-game/internal/server"
	"kufr-game/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Local .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	thingRepo := repository.NewThingRepository(dbPool.Pool)
	gameRepo := repository.NewGameRepository(dbPool.Pool)

	// Initialize services
	slugLocks := lock.NewSlugLock()

	sessionService := service.NewSessionService(gameRepo, thingRepo, slugLocks, service.SessionConfig{
		LevelsPerGame: cfg.Game.LevelsPerGame,
		Cols:          cfg.Game.Cols,
		Rows:          cfg.Game.Rows,
		ImagePath:     cfg.Game.ImagePath,
	})

	resultsService := service.NewResultsService(gameRepo, thingRepo)

	// Flavor text source; seeded per process, injected for testability.
	responder := guess.NewResponder(rand.NewSource(time.Now().UnixNano()))

	srv := server.New(&server.Dependencies{
		Config:    cfg,
		Sessions:  sessionService,
		Results:   resultsService,
		Things:    thingRepo,
		Responder: responder,
	})

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown did not finish cleanly")
	}
	log.Info().Msg("Server stopped gracefully")
}
