// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"barbershop_backend/internal/address"
	"barbershop_backend/internal/auth"
	"barbershop_backend/internal/common"
	"barbershop_backend/internal/config"
	"barbershop_backend/internal/jobs"
	"barbershop_backend/internal/lookup"
	"barbershop_backend/internal/middleware"
	"barbershop_backend/internal/platform/metrics"
	"barbershop_backend/internal/shared"
	"barbershop_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Jobs
	sessionCleanupJob *jobs.SessionCleanupJob

	loginLimiter *middleware.RateLimiter
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	registry *prometheus.Registry,
	collector *metrics.Collector,
	tokenService shared.TokenService,
	blocklist auth.TokenBlocklistService,
	loginLimiter *middleware.RateLimiter,
	userHandler *user.Handler,
	addressHandler *address.Handler,
	authHandler *auth.Handler,
	lookupHandler *lookup.Handler,
	sessionCleanupJob *jobs.SessionCleanupJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	if err := common.RegisterGinValidators(); err != nil {
		return nil, fmt.Errorf("registering validators: %w", err)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	// --- Global Middleware ---
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.ZapLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.ErrorHandler(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", common.SessionTokenHeader, middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(tokenService, blocklist, logger.Named("AuthMiddleware"))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Barbershop API is healthy!"})
	})
	if registry != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(registry)))
	}

	api := router.Group("/api")

	userHandler.RegisterRoutes(api, authMW)
	addressHandler.RegisterRoutes(api, authMW)
	authHandler.RegisterRoutes(api, loginLimiter.Middleware())
	lookupHandler.RegisterRoutes(api)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:        httpServer,
		router:            router,
		cfg:               cfg,
		logger:            logger,
		sessionCleanupJob: sessionCleanupJob,
		loginLimiter:      loginLimiter,
	}, nil
}

// Router exposes the configured engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	if s.sessionCleanupJob != nil {
		if err := s.sessionCleanupJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start session cleanup job", zap.Error(err))
		}
	} else {
		s.logger.Info("Session cleanup job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.sessionCleanupJob != nil {
		s.sessionCleanupJob.Stop()
	}
	if s.loginLimiter != nil {
		s.loginLimiter.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
