package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/boot"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/circuit"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/routing"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	circuits   *circuit.Registry
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
	started    time.Time

	sweepCancel context.CancelFunc
}

// NewServer creates the remote host. table routes every circuit.
func NewServer(cfg *config.Config, table *routing.Table, logger *logging.Logger) (*Server, error) {
	if table == nil {
		return nil, routing.ErrNilTable
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	basePath := cfg.App.BasePath()
	logger.Info("Initializing component host",
		zap.String("addr", cfg.Server.Host+":"+cfg.Server.Port),
		zap.String("base_path", basePath),
		zap.String("web_root", cfg.App.WebRoot),
		zap.Int("routes", table.Len()),
	)

	metrics := monitoring.NewMetrics()
	circuits := circuit.NewRegistry(table, logger.Component("circuit"), metrics)

	hostPage := filepath.Join(cfg.App.WebRoot, cfg.App.HostPage)
	checkHostPage(hostPage, logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			IdleTTL:           10 * time.Minute,
		}))
	}

	s := &Server{
		router:   router,
		circuits: circuits,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		started:  time.Now(),
	}

	wsHandler := ws.NewHandler(circuits, ws.Config{BasePath: basePath}, logger.Component("ws"), metrics)
	static := gzhttp.GzipHandler(http.StripPrefix(strings.TrimSuffix(basePath, "/"), http.FileServer(http.Dir(cfg.App.WebRoot))))

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	app := router.Group(basePath)
	app.GET("/_framework/*filepath", gin.WrapH(static))
	app.HEAD("/_framework/*filepath", gin.WrapH(static))
	app.GET("/_circuit", wsHandler.HandleConnection)

	// Deep links fall back to the host page so the client router can take over
	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) ||
			!strings.HasPrefix(path+"/", basePath) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if rel := strings.TrimPrefix(path, basePath); rel != "" && fileExists(cfg.App.WebRoot, rel) {
			static.ServeHTTP(c.Writer, c.Request)
			return
		}
		c.File(hostPage)
	})

	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Circuits returns the circuit registry
func (s *Server) Circuits() *circuit.Registry {
	return s.circuits
}

// Metrics returns the server metrics
func (s *Server) Metrics() *monitoring.Metrics {
	return s.metrics
}

// Run starts the circuit sweeper and the HTTP server
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.sweepCancel = cancel
	go s.circuits.RunSweeper(ctx, s.config.Circuit.SweepInterval, s.config.Circuit.RetentionPeriod)

	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	if s.sweepCancel != nil {
		s.sweepCancel()
	}
	return s.httpServer.Shutdown(ctx)
}

// Close cleans up resources
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.Shutdown(ctx)
	if syncErr := s.logger.Sync(); syncErr != nil && err == nil {
		s.logger.Debug("Logger sync failed", zap.Error(syncErr))
	}
	return err
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"circuits": s.circuits.Len(),
		"metrics":  s.metrics.GetSnapshot(),
	})
}

// checkHostPage logs whether the host page starts the application itself
func checkHostPage(path string, logger *logging.Logger) {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("Host page not readable", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()

	autostart, err := boot.ShouldAutoStart(f, boot.DefaultBootScript)
	if err != nil {
		logger.Warn("Host page could not be parsed", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("Host page loaded", zap.String("path", path), zap.Bool("autostart", autostart))
}

func fileExists(root, rel string) bool {
	f, err := http.Dir(root).Open("/" + rel)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	return err == nil && !info.IsDir()
}
