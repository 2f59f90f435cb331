package server

import (
	"log"
	"time"

	"github.com/agbru/shorsim/internal/logging"
	"github.com/agbru/shorsim/internal/service"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the default logger, which writes JSON lines to
// stdout tagged "server".
//
// Parameters:
//   - logger: The logger for request and lifecycle events. Nil is ignored.
//
// Returns:
//   - Option: A function that sets the logger on a Server.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStdLogger logs through a standard library logger. Nil is ignored.
func WithStdLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logging.NewStdLoggerAdapter(logger)
		}
	}
}

// WithService injects the factorisation service, mostly for tests.
//
// Parameters:
//   - svc: Runs the /factor and /periods requests. Nil is ignored.
//
// Returns:
//   - Option: A function that sets the service on a Server.
func WithService(svc service.Service) Option {
	return func(s *Server) {
		if svc != nil {
			s.service = svc
		}
	}
}

// WithTimeouts replaces the default timeouts.
//
// Parameters:
//   - timeouts: Request, connection and shutdown limits, used as given.
//
// Returns:
//   - Option: A function that sets the timeouts on a Server.
func WithTimeouts(timeouts Timeouts) Option {
	return func(s *Server) {
		s.timeouts = timeouts
	}
}

// Timeouts bounds requests, connections and shutdown.
type Timeouts struct {
	// RequestTimeout bounds one factorisation or exploration.
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// DefaultServerTimeouts suits registers of up to a few million amplitudes.
func DefaultServerTimeouts() Timeouts {
	return Timeouts{
		RequestTimeout:  2 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    3 * time.Minute,
		IdleTimeout:     2 * time.Minute,
	}
}
