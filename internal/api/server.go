package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finledger/ledger-service/internal/api/handler"
	"github.com/finledger/ledger-service/internal/api/middleware"
	"github.com/finledger/ledger-service/internal/config"
	"github.com/finledger/ledger-service/internal/pkg/cache"
	jwtpkg "github.com/finledger/ledger-service/internal/pkg/jwt"
	"github.com/finledger/ledger-service/internal/pkg/logger"
	"github.com/finledger/ledger-service/internal/repository"
	"github.com/finledger/ledger-service/internal/service"
)

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	db         *gorm.DB
	cache      cache.Cache
	jwtManager *jwtpkg.Manager
	store      *repository.Store
}

// ServerConfig holds dependencies for the server
type ServerConfig struct {
	Config *config.Config
	DB     *gorm.DB
	Cache  cache.Cache
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *ServerConfig) *Server {
	if cfg.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	server := &Server{
		config:     cfg.Config,
		db:         cfg.DB,
		cache:      cfg.Cache,
		jwtManager: jwtpkg.NewManager(cfg.Config.JWT.Secret, cfg.Config.JWT.ExpirationMinutes),
		store:      repository.NewStore(cfg.DB),
	}

	server.setupRouter()

	return server
}

// setupRouter configures the Gin router with all middleware and routes
func (s *Server) setupRouter() {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(s.corsMiddleware())
	router.Use(s.rateLimitMiddleware())

	middleware.InitValidator()

	s.setupRoutes(router)

	s.router = router
}

// corsMiddleware configures CORS settings
func (s *Server) corsMiddleware() gin.HandlerFunc {
	config := cors.Config{
		AllowOrigins: s.config.API.AllowedOrigins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Request-ID",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Disposition",
			"X-Request-ID",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	return cors.New(config)
}

// rateLimitMiddleware configures rate limiting backed by Redis
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	redisCache, ok := s.cache.(*cache.RedisCache)
	if !ok {
		logger.Warn("Rate limiting disabled: Redis cache not available")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	rateLimiter := middleware.NewRedisRateLimiter(redisCache.GetClient())

	return middleware.RateLimit(middleware.RateLimitConfig{
		Limiter:     rateLimiter,
		APIKeyLimit: s.config.API.RateLimit,
		IPLimit:     1000,
		Window:      1 * time.Minute,
	})
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(s.db, s.cache, s.config.Version)

	// Services share the one Store; each mutating call opens its own
	// unit of work.
	transactionService := service.NewTransactionService(s.store)
	accountService := service.NewAccountService(s.store)
	ruleService := service.NewAllocationRuleService(s.store)
	reconciliationService := service.NewReconciliationService(s.store)
	reportService := service.NewReportService(s.store)

	transactionHandler := handler.NewTransactionHandler(transactionService)
	treasuryHandler := handler.NewTreasuryHandler(accountService, reconciliationService)
	ruleHandler := handler.NewAllocationRuleHandler(ruleService)
	reportHandler := handler.NewReportHandler(reportService)

	authenticated := middleware.JWTAuth(s.jwtManager)
	operator := middleware.RequireRole("admin", "operator")
	admin := middleware.RequireRole("admin")

	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", healthHandler.Status)

		// Reads are open by deployment policy; every mutation requires a
		// bearer token.
		v1.GET("/transactions", transactionHandler.List)
		v1.GET("/transactions/:id", transactionHandler.Get)
		v1.POST("/transactions", authenticated, transactionHandler.Create)
		v1.PATCH("/transactions/:id", authenticated, transactionHandler.Update)

		v1.GET("/treasury/status", authenticated, treasuryHandler.Status)
		v1.GET("/accounts", authenticated, treasuryHandler.Status)
		v1.POST("/accounts", authenticated, admin, treasuryHandler.CreateAccount)
		v1.PATCH("/accounts/:id", authenticated, admin, treasuryHandler.UpdateAccount)

		v1.POST("/treasury/reconcile", authenticated, operator, treasuryHandler.Reconcile)
		v1.GET("/treasury/reconciliations", authenticated, operator, treasuryHandler.ListUnresolved)
		v1.POST("/treasury/reconciliations/:id/resolve", authenticated, operator, treasuryHandler.Resolve)

		rules := v1.Group("/allocation-rules")
		rules.Use(authenticated, admin)
		{
			rules.GET("", ruleHandler.List)
			rules.GET("/:id", ruleHandler.Get)
			rules.POST("", ruleHandler.Create)
			rules.PUT("/:id", ruleHandler.Update)
			rules.PATCH("/:id", ruleHandler.Update)
			rules.DELETE("/:id", ruleHandler.Delete)
		}

		v1.GET("/reports/ledger-export", authenticated, operator, reportHandler.LedgerExport)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "The requested resource was not found",
			},
			"timestamp": time.Now().UTC(),
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.API.Host, s.config.API.Port)

	s.httpServer = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.API.ReadTimeout,
		WriteTimeout:   s.config.API.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Info("Starting HTTP server", logger.Fields{
		"host": s.config.API.Host,
		"port": s.config.API.Port,
		"env":  s.config.Environment,
	})

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down HTTP server...")

	if s.httpServer == nil {
		return nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", err)
		return err
	}

	logger.Info("HTTP server stopped successfully")
	return nil
}

// GetRouter returns the Gin router (useful for testing)
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
