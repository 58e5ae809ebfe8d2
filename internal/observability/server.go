// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package observability provides HTTP endpoints for metrics and health checks.
package observability

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"

	"github.com/wardenauth/warden/internal/auth"
)

// ReadinessChecker reports nil when the service can take traffic.
type ReadinessChecker func(ctx context.Context) error

// readinessTimeout bounds a single readiness probe.
const readinessTimeout = 2 * time.Second

// Metrics contains the server's own Prometheus metrics.
type Metrics struct {
	ReadinessChecks *prometheus.CounterVec
	BuildInfo       *prometheus.GaugeVec
}

// NewMetrics creates and registers the server metrics and the auth engine
// metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReadinessChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_readiness_checks_total",
				Help: "Total number of readiness probes by result",
			},
			[]string{"result"},
		),
		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "warden_build_info",
				Help: "Build information, always 1",
			},
			[]string{"version"},
		),
	}

	reg.MustRegister(m.ReadinessChecks)
	reg.MustRegister(m.BuildInfo)
	auth.RegisterMetrics(reg)

	return m
}

// Option configures a Server.
type Option func(*Server)

// WithVersion publishes version through warden_build_info.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithPoolStats exports connection pool gauges for pool.
func WithPoolStats(pool *pgxpool.Pool) Option {
	return func(s *Server) { s.pool = pool }
}

// Server provides HTTP endpoints for observability (metrics and health probes).
type Server struct {
	addr       string
	version    string
	logger     *slog.Logger
	pool       *pgxpool.Pool
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	isReady    ReadinessChecker
	running    atomic.Bool
}

// NewServer creates a new observability server.
// addr: listen address in "host:port" format (e.g., "127.0.0.1:9100", ":9100" for all interfaces).
func NewServer(addr string, readinessChecker ReadinessChecker, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		version:  "dev",
		logger:   slog.Default(),
		registry: prometheus.NewRegistry(),
		isReady:  readinessChecker,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registry.MustRegister(collectors.NewGoCollector())
	s.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.metrics = NewMetrics(s.registry)
	s.metrics.BuildInfo.WithLabelValues(s.version).Set(1)
	if s.pool != nil {
		registerPoolStats(s.registry, s.pool.Stat)
	}

	return s
}

// registerPoolStats exports the pool counters as gauges read on scrape.
func registerPoolStats(reg prometheus.Registerer, stat func() *pgxpool.Stat) {
	gauge := func(name, help string, value func(*pgxpool.Stat) float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return value(stat())
		})
	}
	reg.MustRegister(
		gauge("warden_db_pool_acquired_conns", "Connections currently in use",
			func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
		gauge("warden_db_pool_idle_conns", "Idle connections",
			func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
		gauge("warden_db_pool_total_conns", "Open connections",
			func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
		gauge("warden_db_pool_max_conns", "Maximum pool size",
			func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
	)
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Registry returns the registry served on /metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Start begins serving observability endpoints.
// It returns an error channel that will receive any errors from the HTTP server
// after it starts. The channel is closed when the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("OBSERVABILITY_ALREADY_RUNNING").Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("OBSERVABILITY_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		// Use local httpSrv to avoid race with subsequent Start() calls
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("observability server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("observability server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the observability server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			// Restore running state on failure so the server can be stopped again
			s.running.Store(true)
			return oops.Code("OBSERVABILITY_SHUTDOWN_FAILED").With("operation", "shutdown observability server").Wrap(err)
		}
	}

	s.logger.Info("observability server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("ok\n"))
}

// handleReadiness returns 200 when the checker passes, or 503 with the
// failure logged.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if s.isReady != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := s.isReady(ctx); err != nil {
			s.metrics.ReadinessChecks.WithLabelValues("not_ready").Inc()
			s.logger.WarnContext(ctx, "readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			//nolint:errcheck // health check write error is acceptable, client may disconnect
			w.Write([]byte("not ready\n"))
			return
		}
	}

	s.metrics.ReadinessChecks.WithLabelValues("ready").Inc()
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("ok\n"))
}

// PingChecker adapts anything with a Ping method, such as *pgxpool.Pool,
// into a ReadinessChecker.
func PingChecker(p interface{ Ping(context.Context) error }) ReadinessChecker {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return oops.Code("OBSERVABILITY_NOT_READY").With("operation", "ping database").Wrap(err)
		}
		return nil
	}
}
