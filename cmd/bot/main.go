// Package main is the entry point for the Telegram duel bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-duel-bot/internal/bot"
	"telegram-duel-bot/internal/config"
	"telegram-duel-bot/internal/game/roulette"
	"telegram-duel-bot/internal/pkg/db"
	"telegram-duel-bot/internal/repository"
	"telegram-duel-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize image catalog
	catalogRepo := repository.NewCatalogRepository(dbPool.Pool)
	catalogService, err := service.NewCatalogService(catalogRepo, cfg.Images.BaseDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize image catalog")
	}

	// Initialize roulette game
	rouletteGame := roulette.New()

	// Initialize bot
	deps := &bot.Dependencies{
		Config:         cfg,
		CatalogService: catalogService,
		RouletteGame:   rouletteGame,
	}

	duelBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		duelBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	duelBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create folder_aliases table for the image catalog
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS folder_aliases (
			id VARCHAR(64) PRIMARY KEY,
			folder_name VARCHAR(255) NOT NULL,
			extra_name VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_folder_aliases_folder ON folder_aliases(folder_name);
		CREATE INDEX IF NOT EXISTS idx_folder_aliases_extra ON folder_aliases(extra_name);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: folder_aliases table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
