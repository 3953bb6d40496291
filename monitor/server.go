package monitor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/readflow/component"
	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/logger"
	"github.com/kbukum/readflow/pipeline"
)

// Config holds monitor server settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}

// StatsSource is the pipeline view served on /stats.
type StatsSource interface {
	RunID() string
	Stats() []pipeline.NodeStats
}

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

// Server is a read-only HTTP status server backed by Gin and served over
// HTTP/1.1 and cleartext HTTP/2.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     Config
	log        *logger.Logger
	routes     []component.Route

	mu       sync.Mutex
	listener net.Listener
}

var (
	_ component.Component     = (*Server)(nil)
	_ component.Describable   = (*Server)(nil)
	_ component.RouteProvider = (*Server)(nil)
)

// New creates the server and registers /health, /stats and /version.
func New(cfg Config, service string, health HealthChecker, stats StatsSource, log *logger.Logger) *Server {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine: gin.New(),
		config: cfg,
		log:    log.WithComponent("monitor"),
	}
	s.engine.Use(recovery(s.log), requestID(), requestLogger(s.log))

	s.get("/health", healthHandler(service, health, stats), "health")
	s.get("/stats", statsHandler(stats), "stats")
	s.get("/version", versionHandler(), "version")

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          cfg.IdleTimeout,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      h2c.NewHandler(s.engine, h2s),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) get(path string, h gin.HandlerFunc, name string) {
	s.engine.GET(path, h)
	s.routes = append(s.routes, component.Route{Method: http.MethodGet, Path: path, Handler: name})
}

// Handler returns the root handler, h2c included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Name implements component.Component.
func (s *Server) Name() string { return "monitor" }

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return errors.InvalidConfig("monitor.addr", "failed to bind "+s.config.Addr).WithCause(err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Info("monitor listening", logger.Fields("addr", listener.Addr().String()))
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Internal(err).WithDetail("component", s.Name())
	}
	return nil
}

// Health implements component.Component.
func (s *Server) Health(_ context.Context) component.Health {
	h := component.Health{Name: s.Name(), Status: component.StatusHealthy}
	if s.Addr() == "" {
		h.Status = component.StatusUnhealthy
		h.Message = "not listening"
	}
	return h
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Describe implements component.Describable.
func (s *Server) Describe() component.Description {
	d := component.Description{Name: "Monitor", Type: "server", Details: "addr=" + s.config.Addr}
	if _, port, err := net.SplitHostPort(s.config.Addr); err == nil {
		_, _ = fmt.Sscanf(port, "%d", &d.Port)
	}
	return d
}

// Routes implements component.RouteProvider.
func (s *Server) Routes() []component.Route {
	return s.routes
}
