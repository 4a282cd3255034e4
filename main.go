package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"poi-explorer/config"
	"poi-explorer/handlers"
	"poi-explorer/neighborhoods"
	"poi-explorer/presentation"
	"poi-explorer/search"
	"poi-explorer/services"
	"poi-explorer/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()
	zap.ReplaceGlobals(lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		lg.Fatal("MongoDB connection failed", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())
	if err := mongoClient.Ping(ctx, nil); err != nil {
		lg.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	db := mongoClient.Database(cfg.Mongo.Database)
	lg.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	// Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		lg.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	// Neighborhood catalog
	store := neighborhoods.NewStore(db, redisClient, lg)
	catalog, err := store.Load(ctx, neighborhoods.Catalog)
	if err != nil || len(catalog) == 0 {
		lg.Warn("Using built-in neighborhood catalog", zap.Error(err))
		catalog = neighborhoods.Catalog
	}
	registry, err := neighborhoods.NewRegistry(catalog)
	if err != nil {
		lg.Fatal("Invalid neighborhood catalog", zap.Error(err))
	}
	if err := store.IndexCenters(ctx, registry.All()); err != nil {
		lg.Warn("Neighborhood geo index unavailable, nearest lookups will scan the catalog", zap.Error(err))
	}

	// Services
	userService, err := services.NewUserService(ctx, db, redisClient, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, lg)
	if err != nil {
		lg.Fatal("Failed to initialize user service", zap.Error(err))
	}

	var cache services.ResultCache
	if cfg.Cache.Enabled {
		cache = services.NewRedisResultCache(redisClient, cfg.Cache.TTL, lg)
	}
	seed := uint64(time.Now().UnixNano())
	provider := search.NewMapboxClient(cfg.Provider.BaseURL, cfg.Provider.Timeout)
	discovery := services.NewDiscoveryService(provider, cache, services.NewPlaceholders(seed, seed>>1), lg)

	markers := presentation.NewMarkerBoard()
	sessions := services.NewSessionService(markers)
	credentials := services.NewRedisCredentialStore(redisClient)
	explorer := services.NewExplorerService(registry, credentials, discovery, sessions, lg)

	// Handlers
	router := handlers.NewRouter(
		handlers.RouterConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			JWTSecret:      cfg.Auth.JWTSecret,
			Logger:         lg,
		},
		handlers.NewAuthHandler(userService),
		handlers.NewUserHandler(userService),
		handlers.NewPOIHandler(explorer, credentials, markers),
		handlers.NewNeighborhoodHandler(registry, store, lg),
	)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		lg.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("Graceful shutdown failed", zap.Error(err))
	}
}
