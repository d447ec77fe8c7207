package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/handlers"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/config"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/database"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/gateway"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/identity"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/lists"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/oidc"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/sessions"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/store"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/tokens"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/users"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/logger"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/metrics"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)
	logger.Infof("config loaded: store=%s oidc=%v redis=%v", cfg.Store.Driver, cfg.OIDC.Issuer != "", cfg.Redis.Host != "")
	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	ready := map[string]handlers.ReadyCheck{}

	// Redis is optional: refresh sessions, access-token revocation and the
	// shared rate limiter use it when reachable.
	var rdb *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			_ = rdb.Close()
			rdb = nil
		} else {
			defer rdb.Close()
			sessions.SetBlacklistClient(rdb)
			ready["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			logger.Infof("connected to Redis: %s", addr)
		}
	}

	var (
		docs        store.Store
		mongoClient *mongo.Client
	)
	switch cfg.Store.Driver {
	case "mongo":
		mongoClient, err = database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		docs = store.NewMongoStore(mongoClient.Database(cfg.MongoDB.Database))
		ready["mongo"] = func(ctx context.Context) error { return database.Ping(ctx, mongoClient) }
		logger.Infof("using MongoDB document store (%s)", cfg.MongoDB.Database)
	case "memory":
		docs = store.NewMemoryStore()
		logger.Warn("using in-memory document store; data is lost on restart")
	default:
		logger.Fatalf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}

	var sessionRepo sessions.Repository
	switch {
	case rdb != nil:
		sessionRepo = sessions.NewRedisRepository(rdb, "session:")
		logger.Infof("using Redis for session storage")
	case mongoClient != nil:
		repo, err := sessions.NewMongoRepository(ctx, mongoClient.Database(cfg.MongoDB.Database).Collection("sessions"))
		if err != nil {
			logger.Fatalf("session indexes: %v", err)
		}
		sessionRepo = repo
	default:
		sessionRepo = sessions.NewMemoryRepository()
	}

	var idTokens middleware.Verifier
	switch {
	case cfg.OIDC.Issuer != "":
		ver, err := oidc.NewVerifier(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID)
		if err != nil {
			logger.Fatalf("failed to initialize OIDC verifier: %v", err)
		}
		idTokens = ver
	case cfg.OIDC.AllowInsecure:
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		idTokens = oidc.NewInsecureVerifier()
	default:
		logger.Fatalf("OIDC_ISSUER is required unless ALLOW_INSECURE_TOKEN=true")
	}

	userSvc := users.NewService(users.NewStoreUserRepository(docs), docs)
	deps := handlers.Deps{
		Provider:    identity.NewProvider(cfg, idTokens, userSvc, sessions.NewService(sessionRepo)),
		Users:       userSvc,
		Gateway:     gateway.New(docs),
		Lists:       lists.NewAggregator(docs),
		Items:       lists.NewPartitioner(docs),
		AccessToken: tokens.NewVerifier(cfg),
		ReadyChecks: ready,
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			deps.RateLimit = middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		} else {
			deps.RateLimit = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:     handlers.NewRouter(deps),
		ReadTimeout: cfg.Server.ReadTimeout,
	}
	go func() {
		logger.Infof("starting syncmart on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
