package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shopify-variant-reset/internal/backup"
	"shopify-variant-reset/internal/config"
	"shopify-variant-reset/internal/lock"
	"shopify-variant-reset/internal/service"
	"shopify-variant-reset/internal/shopify"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting variant reset...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Product IDs come from PRODUCT_IDS or the first CLI argument
	if cfg.Run.ProductIDs == "" && len(os.Args) > 1 {
		cfg.Run.ProductIDs = os.Args[1]
	}
	productIDs, err := cfg.Run.ParseProductIDs()
	if err != nil {
		log.Fatalf("Invalid product IDs: %v", err)
	}
	if len(productIDs) == 0 {
		log.Fatal("No product IDs given (set PRODUCT_IDS or pass a comma-separated list)")
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

	// Initialize run lock
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
			log.Fatalf("Failed to initialize Redis lock: %v", err)
		}
		locker = redisLocker
		log.Println("Redis run lock initialized")
	case "none":
		// single ad-hoc run, nothing else talks to the store
	default:
		locker = lock.NewMemoryLocker()
	}

	// Shopify client
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

	// SIGINT/SIGTERM stop the run between products; the product in
	// flight still finishes.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := engine.Run(ctx, productIDs)
	if err != nil {
		log.Fatalf("Run aborted: %v", err)
	}

	for _, p := range report.Products {
		if p.State.Terminal() && p.Error != "" {
			log.Printf("Product %d: %s (%s)", p.ProductID, p.State, p.Error)
		} else {
			log.Printf("Product %d: %s (%d recreated, %d skipped, %s)",
				p.ProductID, p.State, p.Recreated, p.Skipped, p.Duration)
		}
	}

	if failed := report.Failed(); failed > 0 {
		log.Printf("Run %s finished with %d failed product(s)", report.RunID, failed)
		os.Exit(1)
	}
	log.Printf("Run %s finished successfully", report.RunID)
}
