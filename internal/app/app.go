package app

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/kedarnelavelli/payment-service/cmd/server/docs" // swagger docs
	"github.com/kedarnelavelli/payment-service/internal/infra/config"
	"github.com/kedarnelavelli/payment-service/internal/utils/middleware"
)

// App represents the application.
type App struct {
	deps    *Dependencies
	router  *gin.Engine
	cleanup func()
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	deps, cleanup, err := InitializeDependencies(cfg)
	if err != nil {
		return nil, fmt.Errorf("init dependencies: %w", err)
	}
	return NewWithDependencies(deps, cleanup), nil
}

// NewWithDependencies builds the application from already wired dependencies.
func NewWithDependencies(deps *Dependencies, cleanup func()) *App {
	if cleanup == nil {
		cleanup = func() {}
	}
	a := &App{deps: deps, cleanup: cleanup}
	a.router = a.setupRouter()
	a.registerRoutes()

	deps.ZapLogger.Info("payment service initialized",
		zap.String("gateway", deps.Gateway.Name()),
		zap.String("database", deps.Config.Database.Driver),
		zap.Bool("redis", deps.Redis != nil),
	)
	return a
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	cfg := a.deps.Config
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Apply global middleware
	r.Use(middleware.Recovery(a.deps.Logger))
	r.Use(middleware.RequestID(a.deps.Logger))
	r.Use(middleware.Logging(a.deps.Logger))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(a.deps.Metrics))
	}

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"gateway": a.deps.Gateway.Name(),
		})
	})

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.HandlerFor(a.deps.Registry, promhttp.HandlerOpts{})))
	}

	// Swagger documentation endpoint
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	return r
}

// registerRoutes mounts the API under /api.
func (a *App) registerRoutes() {
	api := a.router.Group("/api")

	// Public routes
	a.deps.LoginHandler.RegisterRoutes(api)

	// Operator routes
	protected := api.Group("")
	protected.Use(middleware.RequireAuth(a.deps.AuthDomain))
	if a.deps.Config.Idempotency.Enabled {
		protected.Use(middleware.Idempotency(a.idempotencyStore(), a.deps.Config.Idempotency.TTL))
	}
	a.deps.PaymentHandler.RegisterRoutes(protected)
	a.deps.RefundHandler.RegisterRoutes(protected)
}

// idempotencyStore returns nil without redis so the middleware passes requests through.
func (a *App) idempotencyStore() goredis.UniversalClient {
	if a.deps.Redis == nil {
		return nil
	}
	return a.deps.Redis
}

// Router returns the HTTP handler.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Dependencies returns the wired dependencies.
func (a *App) Dependencies() *Dependencies {
	return a.deps
}

// Stop releases database and redis connections.
func (a *App) Stop() {
	a.cleanup()
	_ = a.deps.ZapLogger.Sync()
}
