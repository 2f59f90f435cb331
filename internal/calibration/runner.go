package calibration

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/agbru/shorsim/internal/quantum"
	"github.com/agbru/shorsim/internal/transform"
	"gonum.org/v1/gonum/stat"
)

const (
	// CalibrationQubits is the width of the reference register, the first
	// register of N=45 (Q=2048).
	CalibrationQubits = 11

	// referencePeriod and referenceOffset shape the reference state: the
	// comb left in the first register after the second one collapsed.
	referencePeriod = 6
	referenceOffset = 1

	// DefaultSamples is how many times each candidate is timed.
	DefaultSamples = 5
)

// Measurement is the timing of one candidate.
type Measurement struct {
	Engine            string        `yaml:"engine"`
	Workers           int           `yaml:"workers,omitempty"`
	ParallelThreshold int           `yaml:"parallel_threshold,omitempty"`
	Mean              time.Duration `yaml:"mean"`
	StdDev            time.Duration `yaml:"stddev"`
	Samples           int           `yaml:"samples"`
	Err               string        `yaml:"error,omitempty"`
}

// OK reports whether every sample succeeded.
func (m Measurement) OK() bool { return m.Err == "" && m.Samples > 0 }

// Label names the candidate, e.g. "parallel/8".
func (m Measurement) Label() string {
	if m.Workers > 0 {
		return fmt.Sprintf("%s/%d", m.Engine, m.Workers)
	}
	return m.Engine
}

// RelativeSpread is StdDev/Mean, 0 for an empty measurement.
func (m Measurement) RelativeSpread() float64 {
	if m.Mean <= 0 {
		return 0
	}
	return float64(m.StdDev) / float64(m.Mean)
}

// ReferenceState returns the comb state of the given width used for every
// trial: equal amplitude on each index congruent to referenceOffset modulo
// referencePeriod.
func ReferenceState(qubits int) (*quantum.Register, error) {
	reg, err := quantum.New(qubits)
	if err != nil {
		return nil, err
	}
	amps := make([]float64, reg.Dim())
	for i := referenceOffset; i < len(amps); i += referencePeriod {
		amps[i] = 1
	}
	if err := reg.SetRealState(amps); err != nil {
		return nil, err
	}
	if err := reg.Normalize(); err != nil {
		return nil, err
	}
	return reg, nil
}

// calibrationRunner times candidates on clones of a reference register.
type calibrationRunner struct {
	ctx     context.Context
	factory transform.Factory
	samples int
	qubits  int
}

func newCalibrationRunner(ctx context.Context, factory transform.Factory, qubits, samples int) *calibrationRunner {
	if samples <= 0 {
		samples = DefaultSamples
	}
	if qubits <= 0 {
		qubits = CalibrationQubits
	}
	return &calibrationRunner{ctx: ctx, factory: factory, samples: samples, qubits: qubits}
}

// runTrial times c over r.samples transforms. A failed sample or a
// canceled context ends the trial with Err set.
func (r *calibrationRunner) runTrial(c Candidate) Measurement {
	m := Measurement{Engine: c.Engine, Workers: c.Workers, ParallelThreshold: c.ParallelThreshold}
	engine, err := r.factory.Create(c.Engine)
	if err != nil {
		m.Err = err.Error()
		return m
	}
	ref, err := ReferenceState(r.qubits)
	if err != nil {
		m.Err = err.Error()
		return m
	}
	opts := transform.Options{Workers: c.Workers, ParallelThreshold: c.ParallelThreshold}

	seconds := make([]float64, 0, r.samples)
	for range r.samples {
		if err := r.ctx.Err(); err != nil {
			m.Err = err.Error()
			return m
		}
		reg := ref.Clone()
		start := time.Now()
		if _, err := engine.Transform(r.ctx, reg, opts, nil); err != nil {
			m.Err = err.Error()
			return m
		}
		seconds = append(seconds, time.Since(start).Seconds())
	}
	return summarize(m, seconds)
}

// summarize fills the statistics of m from per-sample durations in seconds.
func summarize(m Measurement, seconds []float64) Measurement {
	m.Samples = len(seconds)
	if len(seconds) == 0 {
		return m
	}
	mean, std := stat.MeanStdDev(seconds, nil)
	if math.IsNaN(std) {
		std = 0
	}
	m.Mean = time.Duration(mean * float64(time.Second))
	m.StdDev = time.Duration(std * float64(time.Second))
	return m
}

// runAll times every candidate in order, calling progress after each with
// the completed fraction. It stops at the first context error.
func (r *calibrationRunner) runAll(candidates []Candidate, progress func(float64)) ([]Measurement, error) {
	out := make([]Measurement, 0, len(candidates))
	for i, c := range candidates {
		if err := r.ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, r.runTrial(c))
		if progress != nil {
			progress(float64(i+1) / float64(len(candidates)))
		}
	}
	return out, r.ctx.Err()
}

// rankMeasurements sorts successful measurements fastest first and
// appends the failed ones.
func rankMeasurements(ms []Measurement) []Measurement {
	ranked := slices.Clone(ms)
	slices.SortStableFunc(ranked, func(a, b Measurement) int {
		switch {
		case a.OK() != b.OK():
			if a.OK() {
				return -1
			}
			return 1
		case a.Mean < b.Mean:
			return -1
		case a.Mean > b.Mean:
			return 1
		}
		return 0
	})
	return ranked
}

// findParallelThreshold returns the smallest register size at which the
// parallel engine with the given workers beats the sequential one, or the
// largest candidate when it never does.
func (r *calibrationRunner) findParallelThreshold(workers int, sizes []int) int {
	best := sizes[len(sizes)-1]
	for _, size := range sizes {
		qubits := 0
		for 1<<qubits < size {
			qubits++
		}
		sub := *r
		sub.qubits = qubits
		seq := sub.runTrial(Candidate{Engine: "dft"})
		par := sub.runTrial(Candidate{Engine: "parallel", Workers: workers, ParallelThreshold: 1})
		if seq.OK() && par.OK() && par.Mean < seq.Mean {
			return size
		}
		if r.ctx.Err() != nil {
			break
		}
	}
	return best
}
