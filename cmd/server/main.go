package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/example/bloomdesk/internal/config"
	"github.com/example/bloomdesk/internal/database"
	"github.com/example/bloomdesk/internal/handlers"
	"github.com/example/bloomdesk/internal/logging"
	"github.com/example/bloomdesk/internal/routes"
	"github.com/example/bloomdesk/internal/services"
	"github.com/example/bloomdesk/internal/session"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	decimal.MarshalJSONWithoutQuotes = true

	st, err := database.OpenStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	sessions, closeSessions := openSessions(cfg)
	defer closeSessions()

	auth := services.NewAuthService(st, sessions, cfg.JWTSecret, cfg.TokenExpires)
	if cfg.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin account")
		}
		cancel()
	}

	app := fiber.New(fiber.Config{
		AppName:      "Bloomdesk Backend",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, st, auth, cfg)

	go func() {
		log.Info().Str("port", cfg.AppPort).Msg("starting server")
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("fiber.Listen error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

func openSessions(cfg *config.Config) (session.Store, func()) {
	if cfg.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR not set, sessions are kept in memory")
		return session.NewMemoryStore(), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to reach redis")
	}
	return session.NewRedisStore(client), func() { _ = client.Close() }
}
