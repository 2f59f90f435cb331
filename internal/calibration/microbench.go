package calibration

import (
	"context"
	"time"

	"github.com/agbru/shorsim/internal/transform"
)

const (
	// MicroBenchQubits is the register width of the startup benchmark.
	MicroBenchQubits = 9

	// MicroBenchSamples is the number of timed transforms per candidate.
	MicroBenchSamples = 3

	// MicroBenchTimeout bounds the whole startup benchmark.
	MicroBenchTimeout = 300 * time.Millisecond
)

// QuickResults is the outcome of QuickCalibrate.
type QuickResults struct {
	Best         Measurement
	Measurements []Measurement
	// Confidence is in [0, 1]: 1 minus the winner's relative spread,
	// halved when the runner-up is within that spread.
	Confidence float64
	Duration   time.Duration
}

// MicroBenchmark is a small, time-boxed calibration.
type MicroBenchmark struct {
	Qubits  int
	Samples int
	Timeout time.Duration
}

// NewMicroBenchmark returns the startup defaults.
func NewMicroBenchmark() *MicroBenchmark {
	return &MicroBenchmark{Qubits: MicroBenchQubits, Samples: MicroBenchSamples, Timeout: MicroBenchTimeout}
}

// RunQuick times the quick candidate set of every engine in factory.
// Candidates that could not finish before the timeout are reported with
// Err set; the run only fails when none finished.
func (mb *MicroBenchmark) RunQuick(ctx context.Context, factory transform.Factory) (QuickResults, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, mb.Timeout)
	defer cancel()

	runner := newCalibrationRunner(ctx, factory, mb.Qubits, mb.Samples)
	measured, _ := runner.runAll(GenerateCandidates(factory.List(), true), nil)
	ranked := rankMeasurements(measured)

	res := QuickResults{Measurements: ranked, Duration: time.Since(start)}
	if len(ranked) == 0 || !ranked[0].OK() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		return res, errNoResult
	}
	res.Best = ranked[0]
	res.Confidence = confidence(ranked)
	return res, nil
}

func confidence(ranked []Measurement) float64 {
	best := ranked[0]
	spread := best.RelativeSpread()
	c := 1 - spread
	if len(ranked) > 1 && ranked[1].OK() {
		margin := float64(ranked[1].Mean-best.Mean) / float64(best.Mean)
		if margin <= spread {
			c /= 2
		}
	}
	return min(max(c, 0), 1)
}

// QuickCalibrate runs the default MicroBenchmark.
func QuickCalibrate(ctx context.Context, factory transform.Factory) (QuickResults, error) {
	return NewMicroBenchmark().RunQuick(ctx, factory)
}
