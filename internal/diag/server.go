// Package diag provides the node's diagnostics HTTP server.
//
// It exposes health, link state, runtime counters and the log level over a
// small JSON API, and Prometheus metrics on /metrics.
//
// The server follows the same lifecycle pattern as other components:
//
//	server, err := diag.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package diag

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-node/internal/bridge"
	"github.com/nerrad567/gray-logic-node/internal/command"
	"github.com/nerrad567/gray-logic-node/internal/connectivity"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-node/internal/link"
	"github.com/nerrad567/gray-logic-node/internal/rules"
)

// Server timeouts.
const (
	gracefulShutdownTimeout = 5 * time.Second
	readTimeout             = 5 * time.Second
	writeTimeout            = 10 * time.Second
	idleTimeout             = 60 * time.Second
)

// Tracker exposes the state of one monitored interface.
type Tracker interface {
	Snapshot() connectivity.Snapshot
}

// BrokerStatus reports the broker connection.
type BrokerStatus interface {
	IsConnected() bool
}

// BridgeStats reports bridge counters.
type BridgeStats interface {
	Stats() bridge.Stats
}

// QueueStats reports rule queue counters.
type QueueStats interface {
	Stats() rules.Stats
}

// ExecutorStats reports command counters.
type ExecutorStats interface {
	Stats() command.Stats
}

// DiscoveryStats reports discovery messages sent.
type DiscoveryStats interface {
	Sent() uint64
}

// PlatformStats reports per-interface platform requests.
type PlatformStats interface {
	Stats() link.PlatformStats
}

// Deps holds the dependencies of the diagnostics server.
// Everything except Logger is optional; missing sources are left out of the
// responses and metrics.
type Deps struct {
	Config  config.DiagnosticsConfig
	Logger  *logging.Logger
	Node    string
	Version string

	Trackers  []Tracker
	Platforms map[string]PlatformStats
	Broker    BrokerStatus
	Bridge    BridgeStats
	Queue     QueueStats
	Executor  ExecutorStats
	Discovery DiscoveryStats

	// Registerer receives the node metrics. Default: a private registry.
	Registerer prometheus.Registerer
}

// Server is the diagnostics HTTP server.
type Server struct {
	cfg       config.DiagnosticsConfig
	logger    *logging.Logger
	node      string
	version   string
	trackers  []Tracker
	platforms map[string]PlatformStats
	broker    BrokerStatus
	bridge    BridgeStats
	queue     QueueStats
	executor  ExecutorStats
	discovery DiscoveryStats
	metrics   *Collector
	startTime time.Time

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	handler  http.Handler
}

// New creates a diagnostics server. It is not listening until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		node:      deps.Node,
		version:   deps.Version,
		trackers:  deps.Trackers,
		platforms: deps.Platforms,
		broker:    deps.Broker,
		bridge:    deps.Bridge,
		queue:     deps.Queue,
		executor:  deps.Executor,
		discovery: deps.Discovery,
		startTime: time.Now(),
	}

	metrics, err := NewCollector(deps.Registerer, s)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}
	s.metrics = metrics
	s.handler = s.buildRouter()

	return s, nil
}

// Metrics returns the server's metric collector.
func (s *Server) Metrics() *Collector {
	return s.metrics
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening. The listener runs in a background goroutine until
// Close is called.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("diagnostics server already started")
	}

	ln, err := net.Listen("tcp", s.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.ListenAddr(), err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("diagnostics server error", "error", err)
		}
	}()

	s.logger.Info("diagnostics server listening", "address", ln.Addr().String())
	return nil
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("diagnostics server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down diagnostics server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("diagnostics health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return errors.New("diagnostics server not started")
	}
	return nil
}
