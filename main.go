package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"ticket-bot/internal/bot"
	"ticket-bot/internal/checkout"
	"ticket-bot/internal/config"
	"ticket-bot/internal/handlers"
	"ticket-bot/internal/kafka"
	"ticket-bot/internal/logger"
	"ticket-bot/internal/middleware"
	"ticket-bot/internal/ratelimit"
	rediswrap "ticket-bot/internal/redis"
	"ticket-bot/internal/session"
	"ticket-bot/internal/storage"
	"ticket-bot/internal/wizard"

	"github.com/gin-gonic/gin"
)

// Global logger instance
var log *logger.Logger

func main() {
	log = logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("ENV", "Error loading .env file, using environment variables")
	}

	log.LogProcess("STARTUP", "Ticket bot starting up...")

	cfg := config.Load()
	log.Info("CONFIG", "Configuration loaded successfully")

	if err := os.MkdirAll(cfg.Telegram.ImageDir, 0o755); err != nil {
		log.Fatal("STARTUP", "Failed to create image directory: "+err.Error())
	}

	log.LogProcess("DATABASE", "Initializing MySQL database...")
	store, err := storage.NewMySQLStore(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", "Failed to initialize MySQL: "+err.Error())
	}
	defer store.Close()
	log.LogDatabase("INIT", "mysql", "MySQL storage initialized successfully")

	log.LogProcess("KAFKA", "Initializing Kafka producer...")
	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.MockMode, log)
	if err != nil {
		log.Fatal("KAFKA", "Failed to create Kafka producer: "+err.Error())
	}
	defer producer.Close()
	log.LogKafka("INIT", "producer", "Kafka producer initialized successfully")

	// The dedup guard is optional: without Redis the bot still runs, it just
	// loses replay protection on payment confirmations.
	var deduper checkout.Deduper
	if cfg.Redis.Addr != "" {
		redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.Redis.Addr})
		deduper = rediswrap.NewRedis(redisClient)
		log.LogProcess("SERVICE", "Redis dedup guard initialized")
	} else {
		log.Warn("SERVICE", "REDIS_ADDR not set, payment replay protection disabled")
	}

	sessions := session.NewStore()
	guard := ratelimit.NewGuard(cfg.RateLimit.MaxCalls, cfg.RateLimit.Window)
	wiz := wizard.New(store, cfg.Telegram.ImageDir, log)
	checkoutService := checkout.NewService(store, sessions, producer, deduper, log, cfg.Telegram.Currency)
	log.LogProcess("SERVICE", "Checkout service initialized")

	tgBot, err := bot.New(cfg, log, store, sessions, wiz, checkoutService, guard)
	if err != nil {
		log.Fatal("TELEGRAM", "Failed to initialize bot: "+err.Error())
	}

	adminHandler := handlers.NewAdminHandler(store, store)
	router := setupRouter(adminHandler)
	log.LogProcess("ROUTER", "HTTP router configured")

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.LogProcess("SERVER", "Starting HTTP server on port "+cfg.Server.Port)
		log.Info("STARTUP", "📊 Health check available at: http://localhost"+cfg.Server.Port+"/health")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "Server failed to start: "+err.Error())
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		log.Info("STARTUP", "🤖 Ticket bot is ready to accept updates!")
		if err := tgBot.Run(ctx); err != nil && err != context.Canceled {
			log.Error("TELEGRAM", "Update loop stopped: "+err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("SHUTDOWN", "Received shutdown signal, initiating graceful shutdown...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("SHUTDOWN", "Server forced to shutdown: "+err.Error())
	}

	log.Info("SHUTDOWN", "✅ Ticket bot shutdown completed successfully")
}

func setupRouter(adminHandler *handlers.AdminHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.EnhancedLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RateLimit(log))

	router.GET("/health", adminHandler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/events", adminHandler.ListEvents)
		v1.GET("/users/:id/payments", adminHandler.ListUserPayments)
	}

	log.LogProcess("ROUTER", "All routes registered successfully")
	return router
}
