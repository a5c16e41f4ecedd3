package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Vilin97/TelegramAIbot/internal/api"
	"github.com/Vilin97/TelegramAIbot/internal/api/middleware"
	"github.com/Vilin97/TelegramAIbot/internal/chat"
	"github.com/Vilin97/TelegramAIbot/internal/config"
	"github.com/Vilin97/TelegramAIbot/internal/handlers"
	"github.com/Vilin97/TelegramAIbot/internal/llm"
	"github.com/Vilin97/TelegramAIbot/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Load prompt texts
	prompts, err := config.LoadPrompts(cfg.PromptsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load prompts")
	}

	// Initialize the chat store: PostgreSQL when configured, SQLite otherwise
	var chatStore store.ChatStore
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		chatStore = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		chatStore = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("opened SQLite store")
	}
	defer chatStore.Close()

	// Initialize Redis (optional: rate limiting + duplicate suppression)
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Wire the conversational core
	client := llm.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)
	settings := chat.NewSettings(chatStore, cfg.Defaults())
	summarizer := chat.NewSummarizer(client, prompts.Summary, cfg.SummaryModel)
	reworder := chat.NewReworder(client, prompts.Reword, cfg.RewordModel)
	builder := chat.NewBuilder(chatStore, settings, summarizer, client, prompts.System, chat.BotIdentity{
		ID:   cfg.BotID,
		Name: cfg.BotName,
	})

	h := handlers.NewHandler(chatStore, redisStore, builder, settings, reworder, client, logger)

	limiter := middleware.NewTurnLimiter(redisStore, cfg.TurnRateLimit, cfg.TurnRateWindow, logger)
	router := api.NewRouter(logger, h, api.RouterConfig{
		AdminTokenHash: cfg.AdminTokenHash,
		TurnLimiter:    limiter,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // completion calls are slow
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("model", cfg.DefaultModel).
			Msg("starting bot server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
