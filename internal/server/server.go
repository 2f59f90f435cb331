package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agbru/shorsim/internal/config"
	apperrors "github.com/agbru/shorsim/internal/errors"
	"github.com/agbru/shorsim/internal/logging"
	"github.com/agbru/shorsim/internal/service"
	"github.com/agbru/shorsim/internal/shor"
	"github.com/agbru/shorsim/internal/transform"
)

// Server is the HTTP front end of the simulator.
type Server struct {
	factory        transform.Factory
	service        service.Service
	cfg            config.AppConfig
	httpServer     *http.Server
	logger         logging.Logger
	shutdownSignal chan os.Signal
	rateLimiter    *RateLimiter
	securityConfig SecurityConfig
	metrics        *Metrics
	timeouts       Timeouts
	started        time.Time
}

// NewServer builds a server on cfg.Port. Unless WithService is given, it
// creates a FactorService on factory whose progress feeds the Prometheus
// gauge and debug logs.
//
// Parameters:
//   - factory: Provides the transform engines.
//   - cfg: The port, default engine and attempt budget.
//   - opts: Optional overrides for logging, limits and the service.
//
// Returns:
//   - *Server: A server ready to Start.
func NewServer(factory transform.Factory, cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{
		factory:        factory,
		cfg:            cfg,
		logger:         logging.NewLogger(os.Stdout, "server"),
		shutdownSignal: make(chan os.Signal, 1),
		securityConfig: DefaultSecurityConfig(),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
		started:        time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.service == nil {
		svc := service.NewFactorService(s.factory, s.cfg, s.securityConfig.MaxNValue, s.logger)
		observers := []shor.ProgressObserver{shor.NewMetricsObserver()}
		if z, ok := s.logger.(*logging.ZerologAdapter); ok {
			observers = append(observers, shor.NewLoggingObserver(z.Zerolog(), 0.25))
		}
		svc.Observe(observers...)
		s.service = svc
	}
	if s.rateLimiter == nil {
		s.rateLimiter = NewRateLimiter(DefaultRateLimiterConfig())
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/factor", s.wrapWithMiddleware(s.handleFactor))
	mux.HandleFunc("/periods", s.wrapWithMiddleware(s.handlePeriods))
	mux.HandleFunc("/engines", s.wrapWithMiddleware(s.handleEngines))
	mux.HandleFunc("/health", s.wrapWithMiddleware(s.handleHealth))
	mux.HandleFunc("/metrics", s.wrapWithMiddleware(s.handleMetrics))

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}
	return s
}

// Handler returns the routed handler with every middleware applied.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// wrapWithMiddleware chains Security, RateLimit, Logging and Metrics in
// that order around handler.
func (s *Server) wrapWithMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	wrapped := s.metricsMiddleware(handler)
	wrapped = s.loggingMiddleware(wrapped)
	wrapped = RateLimitMiddleware(s.rateLimiter, wrapped)
	return SecurityMiddleware(s.securityConfig, wrapped)
}

// Start listens on the configured port until SIGINT or SIGTERM, then
// shuts down gracefully.
func (s *Server) Start() error {
	signal.Notify(s.shutdownSignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(s.shutdownSignal)

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.rateLimiter.Stop()
		return apperrors.NewServerError("server failed to start", err)
	}
	return s.serve(ln)
}

func (s *Server) serve(ln net.Listener) error {
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening",
			logging.String("addr", ln.Addr().String()),
			logging.String("engine", s.cfg.Engine),
			logging.Int("max_n", s.securityConfig.MaxNValue),
		)
		s.logger.Println("Endpoints: GET /factor?n=<N>&engine=&seed=&tries=&attempts=, /periods?n=<N>&limit=, /engines, /health, /metrics")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-s.shutdownSignal:
		s.logger.Println("Shutdown signal received, initiating graceful shutdown...")
	case err, ok := <-errCh:
		if ok {
			return apperrors.NewServerError("server stopped unexpectedly", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}
	<-errCh
	s.logger.Println("Server stopped gracefully")
	return nil
}
