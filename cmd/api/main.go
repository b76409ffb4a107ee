package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quintalabs/storefront/internal/cache"
	"github.com/quintalabs/storefront/internal/config"
	"github.com/quintalabs/storefront/internal/db"
	httpx "github.com/quintalabs/storefront/internal/http"
	"github.com/quintalabs/storefront/internal/observability"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if cfg.TracingEnabled {
		shutdownTracer, err := observability.InitTracer(context.Background(), "storefront", cfg.OTELEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("database connection failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	migrateCtx, cancel := config.WithTimeout(30 * time.Second)

	err = db.RunMigrations(migrateCtx, cfg.DBURL)

	cancel()

	if err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	// redis is optional: without it the product list cache is disabled
	var rdb *redis.Client

	if cfg.RedisAddr != "" {
		rdb = cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := config.WithTimeout(2 * time.Second)

		if err := cache.Ping(pingCtx, rdb); err != nil {
			log.Warn("redis unavailable, product cache disabled", "err", err)
			rdb = nil
		}

		cancel()
	}

	router := httpx.NewRouter(log, pool, rdb, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
