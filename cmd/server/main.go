package main

// @title           Channel Chat API
// @version         1.0
// @description     Channel-scoped real-time messaging service
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"channel-chat/internal/adapters/kafka"
	"channel-chat/internal/api/middleware"
	"channel-chat/internal/api/routes"
	"channel-chat/internal/config"
	"channel-chat/internal/database"
	"channel-chat/internal/presence"
	"channel-chat/internal/repositories/postgres"
	"channel-chat/internal/services"
	"channel-chat/internal/typing"
	"channel-chat/internal/websocket"
	"channel-chat/pkg/snowflake"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	slog.Info("Starting chat server")

	// Initialize PostgreSQL connection
	db, err := database.NewPostgresConnection(cfg.Database.URL)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Failed to get database handle", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Redis is optional: without it rate limiting and profile caching are off
	var (
		rateLimiter  middleware.RateLimiter
		profileCache services.ProfileCache
	)
	if cfg.Redis.URL != "" {
		redisClient, err := database.NewRedisConnection(cfg.Redis)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		redisService := services.NewRedisService(redisClient)
		rateLimiter = redisService
		profileCache = redisService
	}

	ids, err := snowflake.NewNode(cfg.Snowflake)
	if err != nil {
		slog.Error("Invalid snowflake node", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	channelRepo := postgres.NewChannelRepository(db)
	messageRepo := postgres.NewMessageRepository(db, ids)

	// Optional event stream
	var sink services.EventSink
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := kafka.InitKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			slog.Error("Failed to create Kafka producer", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		sink = publisher
	}

	// Realtime core
	hub := websocket.NewHub()
	tracker := presence.NewTracker()
	notifier := typing.NewNotifier(hub, cfg.Realtime.TypingTTL)

	// Services
	guard := services.NewAccessGuard(channelRepo)
	userService := services.NewUserService(userRepo, profileCache, cfg.Redis.UserCacheTTL)
	channelService := services.NewChannelService(channelRepo)
	messageService := services.NewMessageService(messageRepo, guard, userService, hub, sink)
	gateway := websocket.NewGateway(hub, tracker, notifier, guard, messageService)
	channelService.SetRosterListener(gateway)

	router := routes.NewRouter(routes.Dependencies{
		Channels:    channelService,
		Messages:    messageService,
		Guard:       guard,
		Presence:    tracker,
		Hub:         hub,
		Gateway:     gateway,
		RateLimiter: rateLimiter,
		DB:          sqlDB,
	}, cfg)
	router.SetupRoutes()

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// Hijacked websocket connections are not tracked by the HTTP server
	hub.CloseAll()
	notifier.Close()

	slog.Info("Server stopped", "stats", hub.Stats())
}
