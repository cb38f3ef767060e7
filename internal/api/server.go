package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-ledd/internal/audit"
	"github.com/nerrad567/gray-logic-ledd/internal/devnode"
	"github.com/nerrad567/gray-logic-ledd/internal/endpoint"
	"github.com/nerrad567/gray-logic-ledd/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-ledd/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Endpoint is the part of *endpoint.Manager the API uses.
type Endpoint interface {
	Open() (*endpoint.Session, error)
	State() endpoint.State
	Name() string
	OpenSessions() int64
	Level() bool
}

// BusStatus reports broker connectivity for /metrics.
type BusStatus interface {
	IsConnected() bool
}

// DBStats reports connection pool statistics for /metrics.
type DBStats interface {
	Stats() sql.DBStats
}

// HealthChecker is satisfied by the database, MQTT and InfluxDB clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Endpoint Endpoint

	// Events is optional; without it /events answers 500.
	Events audit.Repository

	// Checks are reported by /health under their map key.
	Checks map[string]HealthChecker

	// MQTT and DB feed /metrics; either may be nil.
	MQTT BusStatus
	DB   DBStats

	// ReadSize is the capacity used when a read has no size parameter.
	ReadSize int

	Version string
}

// Server is the HTTP API server.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	endpoint Endpoint
	events   audit.Repository
	checks   map[string]HealthChecker
	mqtt     BusStatus
	db       DBStats
	readSize int
	version  string

	startTime time.Time
	server    *http.Server
	listener  net.Listener
}

// New creates a server. It is not listening until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Endpoint == nil {
		return nil, fmt.Errorf("endpoint is required")
	}

	readSize := deps.ReadSize
	if readSize <= 0 {
		readSize = devnode.DefaultReadSize
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		endpoint: deps.Endpoint,
		events:   deps.Events,
		checks:   deps.Checks,
		mqtt:     deps.MQTT,
		db:       deps.DB,
		readSize: readSize,
		version:  deps.Version,

		startTime: time.Now(),
	}, nil
}

// Start binds the listener and serves in the background. A bind failure,
// such as the port being in use, is returned here.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
		IdleTimeout:       s.cfg.IdleTimeout(),
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", ln.Addr().String())
	return nil
}

// Addr is the bound address, useful when the configured port is 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close waits up to ten seconds for in-flight requests, then closes the
// remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
