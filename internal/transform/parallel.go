package transform

import (
	"context"
	"sync/atomic"

	"github.com/agbru/shorsim/internal/parallel"
	"golang.org/x/sync/errgroup"
)

// Parallel splits the OUTPUT indices into contiguous spans, one per
// worker. Each worker owns its span of the output buffer and sums the
// active inputs in ascending order, which is the order DFT uses, so both
// engines produce identical vectors without any locking.
type Parallel struct{}

// Name returns the registry name.
func (Parallel) Name() string { return "parallel" }

func (p Parallel) apply(ctx context.Context, in []complex128, active []int, opts Options, report ProgressReporter) ([]complex128, int, error) {
	q := len(in)
	if opts.Workers <= 1 || q < opts.ParallelThreshold {
		return DFT{}.apply(ctx, in, active, opts, report)
	}

	tw := twiddlesFor(q)
	out := make([]complex128, q)
	spans := parallel.SplitRange(q, opts.Workers)

	var done atomic.Int64
	every := int64(max(q/progressSteps, 1))

	var g errgroup.Group
	for _, span := range spans {
		g.Go(func() error {
			uq := uint64(q)
			for c := span.Lo; c < span.Hi; c++ {
				var sum complex128
				uc := uint64(c)
				for _, a := range active {
					sum = term(sum, in[a], tw.at(int(uint64(a)*uc%uq)))
				}
				out[c] = sum
				if n := done.Add(1); n%every == 0 {
					report(float64(n) / float64(q))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, len(spans), err
	}
	return out, len(spans), nil
}
