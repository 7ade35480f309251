package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todoweb/internal/config"
	"todoweb/internal/db"
	httpServer "todoweb/internal/http"
	"todoweb/internal/http/handlers"
	"todoweb/internal/http/middleware"
	"todoweb/internal/logger"
	"todoweb/internal/repository"
	"todoweb/internal/service"
	"todoweb/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitTokenSecret(cfg.SessionSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	// Session storage: Redis when configured, in-process otherwise.
	var store session.Store
	useRedis := false
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unreachable, falling back to in-memory sessions", "error", err)
		} else {
			store = session.NewRedisStore(client)
			middleware.UseRedisClient(client)
			useRedis = true
			logger.Info("redis connected", "addr", cfg.RedisAddr)
		}
	}
	if store == nil {
		mem := session.NewMemoryStore()
		mem.StartSweeper(time.Hour)
		store = mem
	}

	sessions := session.NewManager(store, cfg.SessionTTL, cfg.CookieSecure)
	h := handlers.NewHandler(
		repository.NewUserRepository(dbPool),
		repository.NewTaskRepository(dbPool),
		sessions,
	)
	healthHandler := handlers.NewHealthHandler(dbPool)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics())
	r.LoadHTMLGlob("web/templates/*.html")

	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, h, useRedis, cfg.AuthRateLimit, cfg.AuthRateWindow)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
