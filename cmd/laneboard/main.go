package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/laneboard/internal/api/ws"
	"github.com/gosuda/laneboard/internal/auth"
	"github.com/gosuda/laneboard/internal/broadcast"
	"github.com/gosuda/laneboard/internal/config"
	"github.com/gosuda/laneboard/internal/kanban"
	"github.com/gosuda/laneboard/internal/server"
	"github.com/gosuda/laneboard/internal/store/postgres"
	redisstore "github.com/gosuda/laneboard/internal/store/redis"
	"github.com/gosuda/laneboard/internal/stream"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	setupLogging(cfg.Log)

	if cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, store.Pool()); err != nil {
			return err
		}
	}

	// Connect to Redis, the broker behind every board stream.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := stream.NewRegistry(pubsub, cfg.Stream.Buffer)
	defer registry.Close()

	signer := auth.NewStreamSigner(cfg.Stream.Secret, cfg.Stream.TokenTTL)
	authSvc := auth.NewService(store.Users(), cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	kanbanSvc := kanban.NewService(store, broadcast.NewBroadcaster(registry), signer)
	hub := ws.NewHub(registry, signer, kanbanSvc, cfg.Stream.HandshakeTimeout, ws.OriginHosts(cfg.Server.CORSOrigins))

	srv := server.New(ctx, cfg, server.Services{
		Auth:   authSvc,
		Boards: kanbanSvc,
		Lanes:  kanbanSvc,
		Stream: hub.ServeBoard,
		Health: []server.Pinger{store, pubsub},
	})

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
