// Package transform implements the discrete Fourier transform applied to
// the first register between its two measurements. Several engines compute
// the same transform: a sequential reference, an output-partitioned
// parallel version and an FFT. A decorator shared by every engine adds
// tracing, metrics and logging, and writes the normalised result back into
// the register.
package transform

import (
	"context"
	"errors"
	"math/cmplx"
	"runtime"
	"time"

	"github.com/agbru/shorsim/internal/quantum"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultNoiseThreshold is the amplitude magnitude at or below which an
	// input basis state is treated as empty.
	DefaultNoiseThreshold = 1e-11

	// DefaultParallelThreshold is the register size below which the
	// parallel engine runs on the calling goroutine.
	DefaultParallelThreshold = 4096
)

var (
	transformsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shorsim_transforms_total",
			Help: "The total number of register transforms performed",
		},
		[]string{"engine", "status"},
	)
	transformDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shorsim_transform_duration_seconds",
			Help:    "The duration of register transforms in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
		},
		[]string{"engine"},
	)
)

// ErrEmptyInput is returned when every input amplitude is below the noise
// threshold, so the transform has nothing to act on.
var ErrEmptyInput = errors.New("transform input has no amplitude above the noise threshold")

// ProgressReporter receives the fraction of the transform completed, in
// [0, 1]. It may be called from several goroutines.
type ProgressReporter func(progress float64)

// Options tunes a transform.
type Options struct {
	// NoiseThreshold skips inputs whose magnitude is at or below it.
	// Zero selects DefaultNoiseThreshold; a negative value disables
	// filtering of non-zero amplitudes.
	NoiseThreshold float64
	// Workers bounds the goroutines used by the parallel engine. Zero
	// selects runtime.NumCPU().
	Workers int
	// ParallelThreshold is the smallest register size worth splitting.
	// Zero selects DefaultParallelThreshold.
	ParallelThreshold int
}

func normalizeOptions(opts Options) Options {
	normalized := opts
	if normalized.NoiseThreshold == 0 {
		normalized.NoiseThreshold = DefaultNoiseThreshold
	}
	if normalized.NoiseThreshold < 0 {
		normalized.NoiseThreshold = 0
	}
	if normalized.Workers <= 0 {
		normalized.Workers = runtime.NumCPU()
	}
	if normalized.ParallelThreshold <= 0 {
		normalized.ParallelThreshold = DefaultParallelThreshold
	}
	return normalized
}

// Stats describes a completed transform.
type Stats struct {
	Engine   string        `json:"engine"`
	Size     int           `json:"size"`
	Active   int           `json:"active"`
	Skipped  int           `json:"skipped"`
	Workers  int           `json:"workers"`
	Duration time.Duration `json:"duration"`
}

// ActiveRatio is the fraction of input states that contributed.
func (s Stats) ActiveRatio() float64 {
	if s.Size == 0 {
		return 0
	}
	return float64(s.Active) / float64(s.Size)
}

// Engine transforms a register in place.
type Engine interface {
	// Transform replaces the register's amplitudes with their normalised
	// transform. The context carries tracing only; a transform in flight
	// is never interrupted.
	Transform(ctx context.Context, reg *quantum.Register, opts Options, report ProgressReporter) (Stats, error)

	// Name returns the registry name of the engine (e.g. "dft").
	Name() string
}

// coreEngine is the pure numeric kernel behind an Engine. It receives the
// input amplitudes and the ascending indices of the inputs above the noise
// threshold, and returns the unnormalised output vector.
type coreEngine interface {
	Name() string
	apply(ctx context.Context, in []complex128, active []int, opts Options, report ProgressReporter) (out []complex128, workers int, err error)
}

// decorated wraps a coreEngine with the steps every engine shares.
type decorated struct {
	core coreEngine
}

// newEngine wraps core. It panics on nil, which only a programming error
// can produce.
func newEngine(core coreEngine) Engine {
	if core == nil {
		panic("transform: the core engine cannot be nil")
	}
	return &decorated{core: core}
}

func (d *decorated) Name() string { return d.core.Name() }

func (d *decorated) Transform(ctx context.Context, reg *quantum.Register, opts Options, report ProgressReporter) (stats Stats, err error) {
	ctx, span := otel.Tracer("transform").Start(ctx, "Transform")
	defer span.End()

	if report == nil {
		report = func(float64) {}
	}
	opts = normalizeOptions(opts)

	start := time.Now()
	defer func() {
		stats.Duration = time.Since(start)
		status := "success"
		if err != nil {
			status = "error"
		}
		name := d.core.Name()
		transformsTotal.WithLabelValues(name, status).Inc()
		transformDuration.WithLabelValues(name).Observe(stats.Duration.Seconds())
		span.SetAttributes(
			attribute.String("engine", name),
			attribute.Int("size", stats.Size),
			attribute.Int("active", stats.Active),
		)

		log.Debug().
			Str("engine", name).
			Int("size", stats.Size).
			Int("active", stats.Active).
			Int("workers", stats.Workers).
			Dur("duration", stats.Duration).
			Str("status", status).
			Msg("transform completed")
	}()

	in := reg.View()
	active := activeInputs(in, opts.NoiseThreshold)
	stats = Stats{
		Engine:  d.core.Name(),
		Size:    len(in),
		Active:  len(active),
		Skipped: len(in) - len(active),
	}
	if len(active) == 0 {
		return stats, ErrEmptyInput
	}

	out, workers, err := d.core.apply(ctx, in, active, opts, report)
	if err != nil {
		return stats, err
	}
	stats.Workers = workers
	if err := reg.SetState(out); err != nil {
		return stats, err
	}
	if err := reg.Normalize(); err != nil {
		return stats, err
	}
	report(1.0)
	return stats, nil
}

// activeInputs lists, in ascending order, the indices whose amplitude
// magnitude exceeds noise.
func activeInputs(in []complex128, noise float64) []int {
	active := make([]int, 0, 64)
	for i, a := range in {
		if a != 0 && cmplx.Abs(a) > noise {
			active = append(active, i)
		}
	}
	return active
}
