package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/app"
	"github.com/Freeeeeet/wellness_hub/internal/auth"
	"github.com/Freeeeeet/wellness_hub/internal/config"
	"github.com/Freeeeeet/wellness_hub/internal/controller"
	"github.com/Freeeeeet/wellness_hub/internal/notify"
	"github.com/Freeeeeet/wellness_hub/internal/realtime"
	"github.com/Freeeeeet/wellness_hub/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting wellness hub",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageDriver),
		zap.String("addr", cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	storage, err := app.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer storage.Close()

	// Присутствие: Redis для нескольких узлов, иначе в памяти
	var presence realtime.Tracker
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		presence = realtime.NewRedisPresence(rdb, realtime.DefaultPresenceTTL)
		logger.Info("Redis presence enabled", zap.String("addr", cfg.RedisAddr))
	}

	// Рассылка между узлами через NATS
	var broker realtime.Broker
	if cfg.NATSURL != "" {
		hostname, _ := os.Hostname()
		nb, err := realtime.ConnectNATS(cfg.NATSURL, "wellness-hub-"+hostname, logger)
		if err != nil {
			return err
		}
		broker = nb
		logger.Info("NATS fan-out enabled", zap.String("url", cfg.NATSURL))
	}

	hub := realtime.NewHub(broker, presence, logger)
	if err := hub.Start(); err != nil {
		return err
	}
	defer hub.Close()

	// Уведомления в Telegram
	var notifier service.Notifier
	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
		notifier = notify.NewTelegramNotifier(b, logger)

		botController := notify.NewBotController(b, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands not registered", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	users := service.NewUserService(storage.Users, tokens, logger)
	connections := service.NewConnectionService(storage.Users, storage.FollowRequests, storage.Connections, service.ConnectionOptions{
		Publisher:        hub,
		Presence:         hub.Presence(),
		Notifier:         notifier,
		SuggestionsLimit: cfg.SuggestionsLimit,
		RequestTTL:       cfg.FollowRequestTTL,
	}, logger)
	chat := service.NewChatService(storage.Messages, storage.Connections, hub,
		service.NewSendLimiter(cfg.SendRatePerSec, cfg.SendBurst), logger)

	router := controller.NewRouter(controller.Services{
		Users:       users,
		Connections: connections,
		Chat:        chat,
		Community:   service.NewCommunityService(storage.Posts, storage.Users, logger),
		Grades:      service.NewGradeService(storage.Grades, storage.Users, logger),
		Wellness:    service.NewWellnessService(storage.Moods, logger),
		Groups:      service.NewGroupService(storage.Groups, storage.Connections, storage.Users, logger),
	}, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	gateway := realtime.NewGateway(hub, users, chat, logger)

	scheduler := app.NewScheduler(connections, app.DefaultExpiryInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.Engine(gateway.ServeWS),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
