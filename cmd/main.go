package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Billy-Gatez/spacebook-social/internal/app/registry"
	"github.com/Billy-Gatez/spacebook-social/internal/app/server"
	"github.com/Billy-Gatez/spacebook-social/internal/app/worker"
	"github.com/Billy-Gatez/spacebook-social/internal/config"
	"github.com/Billy-Gatez/spacebook-social/internal/core/services"
	"github.com/Billy-Gatez/spacebook-social/internal/platform/logger"
	"github.com/Billy-Gatez/spacebook-social/internal/platform/telemetry"
	"github.com/Billy-Gatez/spacebook-social/internal/plugins/postgres"
	redisPlugin "github.com/Billy-Gatez/spacebook-social/internal/plugins/redis"

	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	log := logger.NewLogger(*cfg)
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	var pdb *sql.DB
	if pdb, err = postgres.New(ctx, *cfg.Postgres); err != nil {
		log.Error("postgres connection failed", "err", err)
		return
	}
	defer pdb.Close()
	log.Info("postgres connected")
	var rdb *redis.Client
	if rdb, err = redisPlugin.NewRedisClient(ctx, *cfg.Redis); err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL, "err", err)
		return
	}
	defer rdb.Close()
	log.Info("redis connected")

	// Adapters
	convRepo := postgres.NewConversationRepo(pdb)
	msgRepo := postgres.NewMessageRepo(pdb)
	listenRepo := postgres.NewListenRoomRepo(pdb)
	playerRepo := postgres.NewPlayerRepo(pdb)
	presStore := redisPlugin.NewRedisPresenceStore(rdb)
	msgQueue := redisPlugin.NewRedisMessageQueue(log, rdb)
	txManager := postgres.NewTxManager(pdb)

	// Hubs: one per socket channel. The chess channel has none; the
	// matchmaker holds its peers directly.
	messagingHub := registry.New(log)
	listenHub := registry.New(log)

	// Core services
	tokenSvc := services.NewTokenService(cfg.SecretToken)
	presenceSvc := services.NewPresenceService(log, messagingHub, presStore)
	messagingSvc := services.NewMessagingService(log, messagingHub, msgQueue, convRepo, msgRepo, txManager)
	listenSvc := services.NewListenRoomService(log, listenHub, listenRepo)
	matchmakingSvc := services.NewMatchmakingService(log)
	playerSvc := services.NewPlayerService(log, playerRepo, txManager)

	wrkr := worker.NewConversationWorker(log, msgQueue, messagingSvc, cfg.Worker.MessageGroup)
	messagingHub.RunWorker(wrkr.Run)

	// Server
	srv := server.NewServer(
		log,
		cfg.Service.Name,
		cfg.Service.Addr,
		tokenSvc,
		messagingSvc,
		presenceSvc,
		listenSvc,
		matchmakingSvc,
		playerSvc,
		messagingHub,
		listenHub,
	)

	go func() {
		<-ctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "err", err)
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "err", err)
	}
}
