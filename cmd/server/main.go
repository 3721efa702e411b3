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

	"beer-tasting-go/internal/auth"
	"beer-tasting-go/internal/broadcast"
	"beer-tasting-go/internal/config"
	"beer-tasting-go/internal/database"
	"beer-tasting-go/internal/handlers"
	"beer-tasting-go/internal/logging"
	"beer-tasting-go/internal/metrics"
	"beer-tasting-go/internal/middleware"
	"beer-tasting-go/internal/revocation"
	"beer-tasting-go/internal/tracing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	shutdownTracing, err := tracing.InitTracer(ctx, tracing.Config{ServiceName: tracing.DefaultServiceName, Environment: cfg.AppEnv}, logger)
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown error", zap.Error(err))
		}
	}()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("db open/migrate failed", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("db close error", zap.Error(err))
		}
	}()

	var revoked revocation.Store = revocation.NewMemoryStore()
	if cfg.RedisURL != "" {
		rs, err := revocation.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis connect failed", zap.Error(err))
		}
		defer func() { _ = rs.Close() }()
		revoked = rs
		logger.Info("token revocation backed by redis")
	}

	var pub broadcast.Publisher = broadcast.NopPublisher{}
	if cfg.CentrifugoAPI != "" {
		pub = broadcast.NewCentrifugoPublisher(cfg.CentrifugoAPI, cfg.CentrifugoKey)
	} else {
		logger.Warn("CENTRIFUGO_API not set; broadcasts are dropped")
	}

	tokens, err := auth.NewChannelTokens(cfg.CentrifugoHMACKey, cfg.ConnectTokenTTL, cfg.SubscribeTokenTTL)
	if err != nil {
		logger.Fatal("channel tokens", zap.Error(err))
	}

	m := metrics.New()
	broadcaster := broadcast.NewBroadcaster(pub, logger)
	broadcaster.OnSent(m.ObserveBroadcast)

	router := handlers.NewRouter(&handlers.Env{
		DB:          db,
		Config:      cfg,
		Tokens:      tokens,
		Broadcaster: broadcaster,
		Revoked:     revoked,
		Metrics:     m,
		Logger:      logger,
	})

	// cfg.Addr is fully resolved by config.LoadFromEnv() (BACKEND_ADDR or PORT).
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      middleware.CORS(cfg).Handler(router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}
