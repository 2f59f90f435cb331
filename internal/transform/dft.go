package transform

import "context"

// progressSteps is how many progress reports a kernel emits at most.
const progressSteps = 50

// DFT is the sequential reference engine. The outer loop walks the active
// inputs in ascending order and spreads each one over every output.
type DFT struct{}

// Name returns the registry name.
func (DFT) Name() string { return "dft" }

func (DFT) apply(_ context.Context, in []complex128, active []int, _ Options, report ProgressReporter) ([]complex128, int, error) {
	q := len(in)
	tw := twiddlesFor(q)
	out := make([]complex128, q)

	every := max(len(active)/progressSteps, 1)
	for i, a := range active {
		amp := in[a]
		k := 0
		for c := range out {
			out[c] = term(out[c], amp, tw.at(k))
			k += a
			if k >= q {
				k -= q
			}
		}
		if (i+1)%every == 0 {
			report(float64(i+1) / float64(len(active)))
		}
	}
	return out, 1, nil
}
