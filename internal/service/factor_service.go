// Package service exposes the simulator as a request/response API with
// input limits, for the HTTP server and the interactive console.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/agbru/shorsim/internal/config"
	"github.com/agbru/shorsim/internal/lab"
	"github.com/agbru/shorsim/internal/logging"
	"github.com/agbru/shorsim/internal/rng"
	"github.com/agbru/shorsim/internal/shor"
	"github.com/agbru/shorsim/internal/transform"
)

var (
	// ErrMaxValueExceeded is returned when N exceeds the configured limit.
	ErrMaxValueExceeded = errors.New("maximum n value exceeded")

	// ErrMaxTriesExceeded is returned when a request asks for more
	// attempts than the configured budget.
	ErrMaxTriesExceeded = errors.New("maximum tries exceeded")
)

// Request asks for one factorisation. Zero fields take the service
// defaults; a zero Seed draws a fresh one.
type Request struct {
	N        int
	Engine   string
	Seed     uint64
	MaxTries int
}

// Response is a successful factorisation together with the seed that
// reproduces it.
type Response struct {
	shor.Result
	Seed uint64
}

// Service is the factorisation API shared by the HTTP server and the REPL.
type Service interface {
	// Factorize validates the request and runs the simulation.
	Factorize(ctx context.Context, req Request) (Response, error)
	// Explore lists up to limit bases with working periods for n.
	Explore(ctx context.Context, n, limit int) ([]lab.WorkingBase, error)
	// Engines lists the transform engines a request may name.
	Engines() []string
}

// FactorService implements Service on top of shor.Factorize.
type FactorService struct {
	factory transform.Factory
	config  config.AppConfig
	maxN    int
	logger  logging.Logger
	subject *shor.ProgressSubject
	runs    atomic.Uint64
}

// ProgressSlots bounds the run indices reported to progress observers:
// request k reports as run k mod ProgressSlots.
const ProgressSlots = 16

var _ Service = (*FactorService)(nil)

// NewFactorService returns a service resolving engines through factory
// and tuning them from cfg. maxN caps N (0 keeps only the simulator's own
// limit). A nil logger discards.
//
// Parameters:
//   - factory: Provides the transform engines.
//   - cfg: Default engine, attempt budget and transform options.
//   - maxN: The largest N accepted; zero disables the check.
//   - logger: Receives the run logs; nil discards them.
//
// Returns:
//   - *FactorService: The service.
func NewFactorService(factory transform.Factory, cfg config.AppConfig, maxN int, logger logging.Logger) *FactorService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FactorService{factory: factory, config: cfg, maxN: maxN, logger: logger}
}

// Observe routes the progress of every later request to observers.
func (s *FactorService) Observe(observers ...shor.ProgressObserver) {
	if s.subject == nil {
		s.subject = shor.NewProgressSubject()
	}
	for _, o := range observers {
		s.subject.Register(o)
	}
}

// Engines implements Service.
func (s *FactorService) Engines() []string { return s.factory.List() }

// Factorize implements Service.
func (s *FactorService) Factorize(ctx context.Context, req Request) (Response, error) {
	if s.maxN > 0 && req.N > s.maxN {
		return Response{}, fmt.Errorf("%w: %d > %d", ErrMaxValueExceeded, req.N, s.maxN)
	}
	budget := s.config.MaxTries
	if budget <= 0 {
		budget = shor.DefaultMaxTries
	}
	tries := req.MaxTries
	switch {
	case tries <= 0:
		tries = budget
	case tries > budget:
		return Response{}, fmt.Errorf("%w: %d > %d", ErrMaxTriesExceeded, tries, budget)
	}
	name := req.Engine
	if name == "" {
		name = s.config.Engine
	}
	if name == "" {
		name = transform.DefaultEngine
	}
	engine, err := s.factory.Get(name)
	if err != nil {
		return Response{}, err
	}
	seed := req.Seed
	if seed == 0 {
		seed = rng.RandomSeed()
	}
	s.logger.Debug("factorize",
		logging.Int("n", req.N),
		logging.String("engine", name),
		logging.Int("tries", tries),
		logging.Uint64("seed", seed),
	)

	res, err := shor.Factorize(ctx, req.N, rng.NewPCG(seed), shor.Options{
		MaxTries:  tries,
		Engine:    engine,
		Transform: s.config.ToTransformOptions(),
		Logger:    s.logger,
		Subject:   s.subject,
		Index:     int((s.runs.Add(1) - 1) % ProgressSlots),
	})
	return Response{Result: res, Seed: seed}, err
}

// Explore implements Service.
func (s *FactorService) Explore(ctx context.Context, n, limit int) ([]lab.WorkingBase, error) {
	if s.maxN > 0 && n > s.maxN {
		return nil, fmt.Errorf("%w: %d > %d", ErrMaxValueExceeded, n, s.maxN)
	}
	return lab.FindWorkingPeriods(ctx, n, lab.ExploreOptions{Limit: limit, Workers: s.config.Workers})
}
