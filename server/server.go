package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/core"
)

type (
	Server struct {
		ctx    context.Context
		cfg    *ServerConfig
		logger *zap.Logger
		db     *gorm.DB

		plugins   []core.Plugin
		metrics   *Metrics
		apiEngine *gin.Engine
	}

	ServerConfig struct {
		Host            string        `json:"host" toml:"host" env:"SWAPMART_HOST"`
		Port            string        `json:"port" toml:"port" env:"SWAPMART_PORT"`
		ShutdownTimeout time.Duration `json:"shutdown_timeout" toml:"shutdown_timeout" env:"SWAPMART_SHUTDOWN_TIMEOUT"`
		// Comma separated; "*" allows every origin
		AllowedOrigins string  `json:"allowed_origins" toml:"allowed_origins" env:"SWAPMART_ALLOWED_ORIGINS"`
		AuthRateLimit  float64 `json:"auth_rate_limit" toml:"auth_rate_limit" env:"SWAPMART_AUTH_RATE_LIMIT"`
		AuthRateBurst  int     `json:"auth_rate_burst" toml:"auth_rate_burst" env:"SWAPMART_AUTH_RATE_BURST"`
	}
)

func NewServer(ctx context.Context, cfg *ServerConfig, logger *zap.Logger, db *gorm.DB, plugins ...core.Plugin) (srv *Server, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv = &Server{
		ctx:     ctx,
		cfg:     cfg,
		logger:  logger,
		db:      db,
		plugins: plugins,
		metrics: NewMetrics(),
	}

	srv.apiEngine = gin.New()
	srv.apiEngine.HandleMethodNotAllowed = true
	srv.apiEngine.Use(
		RequestLogger(logger),
		Recovery(logger),
		srv.metrics.Middleware,
		CORS(cfg.AllowedOrigins),
	)
	srv.apiEngine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	srv.apiEngine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	srv.apiEngine.GET("/healthz", srv.HealthHandler)
	srv.apiEngine.GET("/metrics", gin.WrapH(srv.metrics.Handler()))

	api := srv.apiEngine.Group("/api")
	for _, plugin := range plugins {
		plugin.RegisterRoutes(api)
	}
	return
}

// Migrate lets every plugin create or update its tables, in registration
// order.
func (srv *Server) Migrate() (err error) {
	for _, plugin := range srv.plugins {
		if err = plugin.RegisterModels(srv.db); err != nil {
			return fmt.Errorf("migrate %T: %w", plugin, err)
		}
	}
	return
}

// Static serves files under root at urlPrefix
func (srv *Server) Static(urlPrefix, root string) {
	srv.apiEngine.Static(urlPrefix, root)
}

func (srv *Server) Handler() http.Handler {
	return srv.apiEngine
}

// HealthHandler reports whether the database answers
func (srv *Server) HealthHandler(c *gin.Context) {
	sqlDB, err := srv.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		srv.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run serves HTTP until the server context is cancelled, then shuts down
// gracefully.
func (srv *Server) Run() (err error) {
	httpSrv := &http.Server{
		Addr:              net.JoinHostPort(srv.cfg.Host, srv.cfg.Port),
		Handler:           srv.apiEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info("http server listening", zap.String("addr", httpSrv.Addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return
	case <-srv.ctx.Done():
	}

	timeout := srv.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	srv.logger.Info("shutting down http server")
	if err = httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return
}
