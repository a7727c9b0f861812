package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/shopify-repricer/internal/api"
	"github.com/ignite/shopify-repricer/internal/config"
	"github.com/ignite/shopify-repricer/internal/cooldown"
	"github.com/ignite/shopify-repricer/internal/engine"
	"github.com/ignite/shopify-repricer/internal/pkg/distlock"
	"github.com/ignite/shopify-repricer/internal/repository/postgres"
	"github.com/ignite/shopify-repricer/internal/service/campaign"
	"github.com/ignite/shopify-repricer/internal/shopify"
)

func main() {
	log.Println("Starting Shopify repricer server...")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	// Redis is preferred for locks and cooldowns; without it the engine
	// falls back to the Postgres-backed stores.
	var redisClient *redis.Client
	var locks distlock.Store
	var cooldownStore cooldown.Store
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("Failed to ping Redis at %s: %v", cfg.Redis.Addr, err)
		}
		locks = distlock.NewRedisStore(redisClient)
		cooldownStore = cooldown.NewRedisStore(redisClient)
		log.Println("Connected to Redis")
	} else {
		locks = distlock.NewPostgresStore(db)
		cooldownStore = cooldown.NewPostgresStore(db)
		log.Println("Redis not configured, using Postgres lock and cooldown stores")
	}

	campaignRepo := postgres.NewCampaignRepo(db)
	stateRepo := postgres.NewRuleStateRepo(db)
	auditRepo := postgres.NewAuditRepo(db)
	resultsRepo := postgres.NewResultsRepo(db)

	gateway := shopify.NewClient(cfg.Shopify)

	processor := engine.NewProcessor(
		locks,
		cooldown.NewTracker(cooldownStore),
		campaignRepo,
		stateRepo,
		gateway,
		auditRepo,
		cfg.Engine,
	)

	handlers := api.NewHandlers(
		processor,
		campaign.NewService(campaignRepo),
		resultsRepo,
		api.NewHealthChecker(db, redisClient),
		cfg.Shopify.WebhookSecret,
	)
	server := api.NewServer(cfg.Server, handlers)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", server.Addr())
		errCh <- server.ListenAndServe()
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	case sig := <-done:
		log.Printf("Received %s, shutting down...", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
