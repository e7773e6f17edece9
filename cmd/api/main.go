// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	redisCache "nearby/internal/adapter/cache"
	"nearby/internal/adapter/storage"
	"nearby/internal/config"
	"nearby/internal/domain/suggest"
	"nearby/internal/events"
	"nearby/internal/server"
	searchService "nearby/internal/service/search"
	suggestService "nearby/internal/service/suggest"
	"nearby/internal/service/suggest/sources"
	"nearby/internal/warmer"
)

func main() {
	// Load .env in development; a missing file is fine.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	rdb, err := redisCache.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	natsConn, err := initNATS(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsConn.Close()

	// Initialize storage and cache adapters
	spatialStore := storage.NewBusinessStore(db)
	cacheStore := redisCache.NewRedisStore(rdb)

	// Initialize the search engine
	normalizer := searchService.NewNormalizer(searchService.NormalizerConfig{
		MinRadiusKm:     cfg.Search.MinRadiusKm,
		MaxRadiusKm:     cfg.Search.MaxRadiusKm,
		DefaultRadiusKm: cfg.Search.DefaultRadiusKm,
		MaxPageSize:     cfg.Search.MaxPageSize,
		DefaultPageSize: cfg.Search.DefaultPageSize,
	})

	keyPolicy := searchService.NewKeyPolicy(searchService.KeyPolicyConfig{
		Prefix:          cfg.Cache.KeyPrefix,
		CoordPlaces:     cfg.Cache.CoordPlaces,
		GridCellDegrees: cfg.Cache.GridCellDegrees,
		NeighborRing:    cfg.Cache.NeighborRing,
	})

	keyIndex, err := searchService.NewGridKeyIndex(cfg.Cache.IndexMaxCells, cfg.Cache.IndexKeysPerCell)
	if err != nil {
		log.Fatalf("Failed to build grid key index: %v", err)
	}

	orchestrator := searchService.NewOrchestrator(
		normalizer,
		keyPolicy,
		spatialStore,
		cacheStore,
		keyIndex,
		cacheStore,
		searchService.OrchestratorConfig{
			AvgSpeedKmh:     cfg.Search.AvgSpeedKmh,
			DenseTTL:        cfg.Cache.DenseTTL,
			MediumTTL:       cfg.Cache.MediumTTL,
			SparseTTL:       cfg.Cache.SparseTTL,
			DenseThreshold:  0.5,
			MediumThreshold: 0.2,
			ClusterTTL:      cfg.Cache.ClusterTTL,
		},
		nil,
		log.Default(),
	)

	invalidator := searchService.NewInvalidator(keyPolicy, cacheStore, keyIndex, log.Default())

	// Initialize the suggestion engine
	trendingSource := sources.NewTrendingSource(rdb, nil)
	popularSource := sources.NewPopularSource(rdb)

	rankerCfg := suggestService.DefaultRankerConfig()
	rankerCfg.MinConfidence = cfg.Suggest.MinConfidence

	suggestionSources := []suggest.Source{
		sources.NewNameSource(db),
		sources.NewCategorySource(db),
		trendingSource,
		popularSource,
	}

	aggregator := suggestService.NewAggregator(
		suggestionSources,
		suggestService.NewRanker(rankerCfg, nil),
		suggestService.AggregatorConfig{
			SourceLimit:  cfg.Suggest.SourceLimit,
			DefaultLimit: cfg.Suggest.DefaultLimit,
		},
		log.Default(),
	)

	// Subscribe to business-update events for cache invalidation
	subscriber := events.NewSubscriber(natsConn, invalidator, cfg.NATS.UpdateSubject, cfg.NATS.InvalidateTimeout, log.Default())
	if err := subscriber.Start(); err != nil {
		log.Fatalf("Failed to start event subscriber: %v", err)
	}

	// Cache warmer is owned here, not by the engine.
	var warm *warmer.Warmer
	if cfg.Warmer.Enabled {
		warm = warmer.New(cacheStore, orchestrator, warmer.ParseGridKey, warmer.Config{
			Interval:    cfg.Warmer.Interval,
			TopCells:    cfg.Warmer.TopCells,
			RadiusKm:    cfg.Warmer.RadiusKm,
			CallTimeout: cfg.Warmer.CallTimeout,
		}, log.Default())
		if err := warm.Start(ctx); err != nil {
			log.Fatalf("Failed to start cache warmer: %v", err)
		}
	}

	// Initialize HTTP server
	httpServer := server.NewServer(
		cfg.Server,
		orchestrator,
		aggregator,
		invalidator,
		popularSource,
		trendingSource,
	)

	// Start HTTP server
	go func() {
		log.Printf("Starting HTTP server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Println("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	log.Println("Shutting down services...")

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := subscriber.Stop(); err != nil {
		log.Printf("Event subscriber shutdown error: %v", err)
	}

	if warm != nil {
		warm.Stop()
	}

	log.Println("Shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
