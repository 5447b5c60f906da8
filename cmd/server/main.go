package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shopify-variant-reset/internal/backup"
	"shopify-variant-reset/internal/config"
	"shopify-variant-reset/internal/handler"
	"shopify-variant-reset/internal/lock"
	"shopify-variant-reset/internal/middleware"
	"shopify-variant-reset/internal/router"
	"shopify-variant-reset/internal/service"
	"shopify-variant-reset/internal/shopify"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting variant reset trigger service...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	if cfg.App.APIKey == "" && !cfg.App.IsDevelopment() {
		log.Fatal("API_KEY is required outside development")
	}

	// Initialize backup store based on config
	var store backup.Store
	switch cfg.Backup.Type {
	case "sqlite":
		sqliteStore, err := backup.NewSQLiteStore(cfg.Backup.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite backup store: %v", err)
		}
		store = sqliteStore
		log.Println("SQLite backup store initialized")
	case "memory":
		store = backup.NewMemoryStore()
		log.Println("Memory backup store initialized")
	default: // mysql
		mysqlStore, err := backup.NewMySQLStore(cfg.Backup.DSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL backup store: %v", err)
		}
		store = mysqlStore
		log.Println("MySQL backup store initialized")
	}
	defer store.Close()

	// Initialize run lock; the service refuses overlapping runs even
	// when several instances share the store.
	var locker lock.Locker
	switch cfg.Lock.Type {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Lock.RedisAddress(),
			Password: cfg.Lock.RedisPassword,
			DB:       cfg.Lock.RedisDB,
		})
		redisLocker, err := lock.NewRedisLocker(redisClient)
		if err != nil {
			log.Printf("Warning: Redis lock unavailable, falling back to memory: %v", err)
			locker = lock.NewMemoryLocker()
		} else {
			locker = redisLocker
			log.Println("Redis run lock initialized")
		}
	default:
		locker = lock.NewMemoryLocker()
	}

	// Shopify client, shared by the engine and the locations endpoint
	client := shopify.NewClient(shopify.Config{
		BaseURL:    cfg.Shopify.BaseURL(),
		Token:      cfg.Shopify.Token,
		MinGap:     cfg.Shopify.MinGap,
		MaxRetries: cfg.Shopify.MaxRetries,
		RetryBase:  cfg.Shopify.RetryBase,
	})

	engine := service.NewEngine(client, store, service.EngineConfig{
		Exclude: service.TitleContains(cfg.Run.ExcludeSubstring),
		Locker:  locker,
		LockTTL: cfg.Lock.TTL,
	})

	// Initialize handlers
	healthHandler := handler.New()
	runHandler := handler.NewRunHandler(engine)
	locationHandler := handler.NewLocationHandler(client)

	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		APIKey: cfg.App.APIKey,
	})

	// Create router
	r := router.New(router.Config{
		Handler:         healthHandler,
		RunHandler:      runHandler,
		LocationHandler: locationHandler,
		AuthMiddleware:  authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
