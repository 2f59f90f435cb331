// Package shor drives the simulated period-finding routine of Shor's
// algorithm. Each attempt picks a base coprime to N, entangles two
// simulated registers through the modular exponentiation table, measures,
// transforms and measures again, then turns the reading into a period
// candidate and, with luck, a factor. Failed attempts are retried with a
// fresh base until the try budget runs out.
package shor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agbru/shorsim/internal/contfrac"
	"github.com/agbru/shorsim/internal/logging"
	"github.com/agbru/shorsim/internal/numtheory"
	"github.com/agbru/shorsim/internal/quantum"
	"github.com/agbru/shorsim/internal/rng"
	"github.com/agbru/shorsim/internal/transform"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxTries is the attempt budget used when Options.MaxTries is 0.
const DefaultMaxTries = 50

var (
	factorizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shorsim_factorizations_total",
			Help: "The total number of factorization runs by final status",
		},
		[]string{"status"},
	)
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shorsim_attempts_total",
			Help: "The total number of attempts by outcome reason",
		},
		[]string{"reason"},
	)
	triesHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shorsim_factorization_tries",
			Help:    "Attempts used by finished factorization runs",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 50},
		},
	)
)

// Options configures a run.
type Options struct {
	// MaxTries is the attempt budget. Zero selects DefaultMaxTries.
	MaxTries int
	// Engine performs the transform. Nil selects the default engine.
	Engine transform.Engine
	// Transform is passed to the engine.
	Transform transform.Options
	// Logger receives one debug line per attempt. Nil discards.
	Logger logging.Logger
	// Subject and Index route progress notifications.
	Subject *ProgressSubject
	Index   int
	// OnAttempt, if set, is called after every attempt.
	OnAttempt func(Attempt)
}

func (o Options) normalized() Options {
	if o.MaxTries <= 0 {
		o.MaxTries = DefaultMaxTries
	}
	if o.Engine == nil {
		o.Engine = transform.GlobalFactory().MustGet(transform.DefaultEngine)
	}
	if o.Logger == nil {
		o.Logger = logging.NewNopLogger()
	}
	return o
}

// Result describes a successful run.
type Result struct {
	RunID  string `json:"run_id"`
	Layout Layout `json:"layout"`
	// Factor <= Cofactor and Factor * Cofactor == N.
	Factor   int `json:"factor"`
	Cofactor int `json:"cofactor"`
	Base     int `json:"base"`
	// Value and Measured are the second and first register readings of
	// the successful attempt.
	Value    int               `json:"value"`
	Measured int               `json:"measured"`
	Fraction contfrac.Fraction `json:"fraction"`
	Period   int               `json:"period"`
	// PeriodVerified reports whether Base^Period ≡ 1 (mod N). The factor
	// is genuine either way; the check fails when the true period does not
	// divide Q and the reading only approximated it.
	PeriodVerified bool          `json:"period_verified"`
	Tries          int           `json:"tries"`
	Attempts       []Attempt     `json:"attempts"`
	Engine         string        `json:"engine"`
	Duration       time.Duration `json:"duration"`
}

// Factorize searches for a non-trivial factor of n.
//
// Setup errors (*SetupError) are returned before any attempt. Each attempt
// draws from src exactly once per base candidate and once per measurement;
// given the same draws a run is fully reproducible. The context is checked
// between attempts only. When the budget runs out the error is an
// *ExhaustedError.
//
// Parameters:
//   - ctx: Checked between attempts; also carries the trace span.
//   - n: The odd composite to factor.
//   - src: Uniform draws for base selection and both measurements.
//   - opts: Budget, engine, logging and progress routing.
//
// Returns:
//   - Result: The run so far; complete on success.
//   - error: A *SetupError, an *ExhaustedError, a context error or an engine failure.
func Factorize(ctx context.Context, n int, src rng.Source, opts Options) (res Result, err error) {
	layout, err := NewLayout(n)
	if err != nil {
		factorizationsTotal.WithLabelValues("invalid").Inc()
		return Result{}, err
	}
	opts = opts.normalized()

	ctx, span := otel.Tracer("shor").Start(ctx, "Factorize",
		trace.WithAttributes(attribute.Int("n", n), attribute.String("engine", opts.Engine.Name())))
	defer span.End()

	res = Result{
		RunID:  uuid.NewString(),
		Layout: layout,
		Engine: opts.Engine.Name(),
	}
	log := opts.Logger.With(logging.String("run_id", res.RunID), logging.Int("n", n))
	r := &runner{layout: layout, src: src, opts: opts, log: log}
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		status := "success"
		switch {
		case errors.Is(err, ErrExhausted):
			status = "exhausted"
		case err != nil:
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		factorizationsTotal.WithLabelValues(status).Inc()
		if err == nil || errors.Is(err, ErrExhausted) {
			triesHistogram.Observe(float64(res.Tries))
		}
	}()

	for try := 1; try <= opts.MaxTries; try++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		att, err := r.attempt(ctx, try)
		res.Tries = try
		res.Attempts = append(res.Attempts, att)
		attemptsTotal.WithLabelValues(att.Reason.String()).Inc()
		r.logAttempt(att)
		if opts.OnAttempt != nil {
			opts.OnAttempt(att)
		}
		if err != nil {
			return res, fmt.Errorf("attempt %d: %w", try, err)
		}
		if att.Outcome != OutcomeSuccess {
			continue
		}

		res.Factor = min(att.Factor, n/att.Factor)
		res.Cofactor = n / res.Factor
		res.Base = att.Base
		res.Value = att.Value
		res.Measured = att.M
		res.Fraction = att.Fraction
		res.Period = att.Fraction.Den
		res.PeriodVerified = numtheory.ModExp(att.Base, att.Fraction.Den, n) == 1
		r.report(try, 1.0)
		log.Info("factor found",
			logging.Int("factor", res.Factor),
			logging.Int("cofactor", res.Cofactor),
			logging.Int("base", res.Base),
			logging.Int("period", res.Period),
			logging.Int("tries", try),
		)
		return res, nil
	}
	return res, &ExhaustedError{N: n, Tries: res.Tries, Attempts: res.Attempts}
}

// runner holds the per-run state shared by attempts.
type runner struct {
	layout Layout
	src    rng.Source
	opts   Options
	log    logging.Logger
}

func (r *runner) report(try int, progress float64) {
	if r.opts.Subject != nil {
		r.opts.Subject.Notify(r.opts.Index, try, progress)
	}
}

func (r *runner) logAttempt(a Attempt) {
	r.log.Debug("attempt finished",
		logging.Int("try", a.Number),
		logging.Int("base", a.Base),
		logging.String("stage", a.Stage.String()),
		logging.String("outcome", a.Outcome.String()),
		logging.String("reason", a.Reason.String()),
		logging.Int("value", a.Value),
		logging.Int("m", a.M),
		logging.String("fraction", a.Fraction.String()),
		logging.Duration("duration", a.Duration),
	)
}

// attempt draws a base and runs the remaining stages with it.
func (r *runner) attempt(ctx context.Context, try int) (Attempt, error) {
	start := time.Now()
	x, err := numtheory.PickCoprime(r.layout.N, r.src)
	if err != nil {
		return Attempt{
			Number:   try,
			Stage:    StageChoosingBase,
			Outcome:  OutcomeRetry,
			Reason:   ReasonNoCoprime,
			Duration: time.Since(start),
		}, nil
	}
	att, err := r.attemptWithBase(ctx, try, x)
	att.Duration = time.Since(start)
	return att, err
}

// attemptWithBase runs every stage after base selection. Retryable
// failures come back as an Attempt with OutcomeRetry; the error is
// reserved for failures that make retrying pointless.
func (r *runner) attemptWithBase(ctx context.Context, try, x int) (Attempt, error) {
	ctx, span := otel.Tracer("shor").Start(ctx, "Attempt",
		trace.WithAttributes(attribute.Int("try", try), attribute.Int("base", x)))
	defer span.End()

	n, q := r.layout.N, r.layout.Q
	att := Attempt{Number: try, Base: x, Outcome: OutcomeRetry}
	retry := func(stage Stage, reason Reason) (Attempt, error) {
		att.Stage, att.Reason = stage, reason
		span.SetAttributes(attribute.String("reason", reason.String()))
		return att, nil
	}
	r.report(try, 0)

	att.Stage = StageBuildingEntangledState
	reg1, err := quantum.New(r.layout.FirstQubits)
	if err != nil {
		return att, err
	}
	reg2, err := quantum.New(r.layout.SecondQubits)
	if err != nil {
		return att, err
	}
	reg1.SetAllEquallyLikely()

	table := make([]int32, q)
	counts := make([]float64, reg2.Dim())
	v := 1 % n
	for i := range table {
		table[i] = int32(v)
		counts[v]++
		v = v * x % n
	}
	if err := reg2.SetRealState(counts); err != nil {
		return att, err
	}
	if err := reg2.Normalize(); err != nil {
		return att, err
	}

	att.Stage = StageMeasuringSecondRegister
	value, err := reg2.Measure(r.src.Float64())
	if err != nil {
		if errors.Is(err, quantum.ErrMeasurement) {
			return retry(StageMeasuringSecondRegister, ReasonMeasureSecond)
		}
		return att, err
	}
	att.Value = value

	att.Stage = StageCollapsingFirstRegister
	collapse := make([]float64, q)
	for i, t := range table {
		if int(t) == value {
			collapse[i] = 1
		}
	}
	if err := reg1.SetRealState(collapse); err != nil {
		return att, err
	}
	if err := reg1.Normalize(); err != nil {
		return att, err
	}

	att.Stage = StageTransforming
	stats, err := r.opts.Engine.Transform(ctx, reg1, r.opts.Transform, func(p float64) {
		r.report(try, 0.05+0.9*p)
	})
	att.Transform = stats
	if err != nil {
		return att, err
	}

	att.Stage = StageMeasuringFirstRegister
	m, err := reg1.Measure(r.src.Float64())
	if err != nil {
		if errors.Is(err, quantum.ErrMeasurement) {
			return retry(StageMeasuringFirstRegister, ReasonMeasureFirst)
		}
		return att, err
	}
	att.M = m
	if m == 0 {
		return retry(StageMeasuringFirstRegister, ReasonZeroMeasurement)
	}

	att.Stage = StageExtractingPeriod
	att.Ratio = float64(m) / float64(q)
	frac, ok := ApplyPeriodPolicy(contfrac.Approximate(att.Ratio, q), q)
	att.Fraction = frac
	if !ok {
		return retry(StageExtractingPeriod, ReasonOddPeriod)
	}

	att.Stage = StageValidatingFactors
	factor, a, b, reason := FactorFromPeriod(n, x, frac.Den)
	att.A, att.B, att.Factor = a, b, factor
	if reason != ReasonNone {
		return retry(StageValidatingFactors, reason)
	}
	att.Stage = StageDone
	att.Outcome = OutcomeSuccess
	att.Reason = ReasonNone
	return att, nil
}
