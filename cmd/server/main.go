package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizbank/qbank-backend/internal/config"
	"github.com/quizbank/qbank-backend/internal/database"
	"github.com/quizbank/qbank-backend/internal/handler"
	"github.com/quizbank/qbank-backend/internal/logger"
	"github.com/quizbank/qbank-backend/internal/repository"
	"github.com/quizbank/qbank-backend/internal/router"
	"github.com/quizbank/qbank-backend/internal/service"
	"github.com/quizbank/qbank-backend/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting QBank Backend")

	if cfg.AccessCode == 0 {
		log.Warn().Msg("ACCESS_CODE is not set; all write operations will be rejected")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	// The count cache is an optimization; the service runs without it.
	var rdb *redis.Client
	if rdb, err = database.NewRedisClient(ctx, cfg, log); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, count cache disabled")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// ─── Wire Repositories, Services, Handlers ─────────────────────────
	questionRepo := repository.NewQuestionRepository(pool)
	imageHost := service.NewImageHostClient(cfg)
	questionService := service.NewQuestionService(questionRepo, imageHost, rdb, cfg, log)
	questionHandler := handler.NewQuestionHandler(questionService, log)

	// ─── Prewarm Count Cache ───────────────────────────────────────────
	if err := questionService.PrewarmCountCache(ctx); err != nil {
		log.Warn().Err(err).Msg("Count cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.Setup(questionHandler, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
