package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/quintalabs/storefront/internal/cache"
	"github.com/quintalabs/storefront/internal/config"
	"github.com/quintalabs/storefront/internal/http/handlers"
	"github.com/quintalabs/storefront/internal/http/middlewares"
	"github.com/quintalabs/storefront/internal/observability"
	"github.com/quintalabs/storefront/internal/repo/postgres"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	prom := observability.NewProm(reg)

	// middleware
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(prom.GinHandleMiddleware())

	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware("storefront"))
	}

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	tokensRepo := postgres.NewAuthTokensRepo(pool, prom)
	productsRepo := postgres.NewProductsRepo(pool, prom)

	productCache := cache.NewProductCache(rdb, cfg.CacheTTL)

	authHandler := handlers.NewAuthHandler(usersRepo, tokensRepo, log)
	productsHandler := handlers.NewProductsHandler(productsRepo, productCache, log)

	authMW := middlewares.NewAuthMiddleware(tokensRepo)
	loginLimiter := middlewares.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)

	api := r.Group("/api")

	api.POST("/register", loginLimiter.Middleware(middlewares.KeyByIP), authHandler.Register)
	api.POST("/login", loginLimiter.Middleware(middlewares.KeyByIP), authHandler.Login)

	api.GET("/products", productsHandler.List)
	api.GET("/products/:id", productsHandler.Get)

	// everything below carries a bearer token; product mutations are
	// deliberately inside this group
	protected := api.Group("", authMW.RequireAuth())

	protected.GET("/user", authHandler.CurrentUser)
	protected.POST("/logout", authHandler.Logout)

	protected.POST("/products", productsHandler.Create)
	protected.PUT("/products/:id", productsHandler.Update)
	protected.DELETE("/products/:id", productsHandler.Delete)

	return r
}
