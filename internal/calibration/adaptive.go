package calibration

import (
	"runtime"
	"slices"
)

// GenerateWorkerCounts lists the worker counts tried for the parallel
// engine: powers of two up to the core count, plus the core count itself.
// A single-core machine only tries 1.
func GenerateWorkerCounts() []int {
	return workerCounts(runtime.NumCPU())
}

func workerCounts(numCPU int) []int {
	if numCPU <= 1 {
		return []int{1}
	}
	var counts []int
	for w := 2; w < numCPU; w *= 2 {
		counts = append(counts, w)
	}
	return append(counts, numCPU)
}

// GenerateQuickWorkerCounts is the reduced set used at startup: half the
// cores and all of them.
func GenerateQuickWorkerCounts() []int {
	return quickWorkerCounts(runtime.NumCPU())
}

func quickWorkerCounts(numCPU int) []int {
	if numCPU <= 2 {
		return []int{numCPU}
	}
	return []int{numCPU / 2, numCPU}
}

// GenerateParallelThresholds lists register sizes tried as the point from
// which the parallel engine fans out. Each candidate is a power of two, so
// it matches a register dimension exactly.
func GenerateParallelThresholds() []int {
	thresholds := []int{256, 1024, 4096, 16384}
	if runtime.NumCPU() >= 8 {
		thresholds = append([]int{64}, thresholds...)
	}
	return thresholds
}

// EstimateOptimalWorkers guesses a worker count without benchmarking.
func EstimateOptimalWorkers() int {
	return runtime.NumCPU()
}

// EstimateOptimalParallelThreshold guesses the fan-out size without
// benchmarking. Fewer cores need larger registers to amortise the
// goroutine start-up.
func EstimateOptimalParallelThreshold() int {
	switch numCPU := runtime.NumCPU(); {
	case numCPU <= 2:
		return 16384
	case numCPU <= 4:
		return 4096
	case numCPU <= 16:
		return 1024
	default:
		return 256
	}
}

// ValidateSetup clamps a calibrated setup into usable bounds.
func ValidateSetup(workers, parallelThreshold int) (int, int) {
	workers = min(max(workers, 0), 4*runtime.NumCPU())
	parallelThreshold = min(max(parallelThreshold, 0), 1<<20)
	return workers, parallelThreshold
}

// Candidate is one engine setup to time.
type Candidate struct {
	Engine            string
	Workers           int
	ParallelThreshold int
}

// GenerateCandidates expands engines into the setups to time. Only the
// parallel engine varies its worker count; quick selects the reduced set.
// The parallel threshold is pinned to 1 so the calibration register is
// always split.
func GenerateCandidates(engines []string, quick bool) []Candidate {
	workers := GenerateWorkerCounts()
	if quick {
		workers = GenerateQuickWorkerCounts()
	}
	var out []Candidate
	for _, name := range slices.Sorted(slices.Values(engines)) {
		if name != "parallel" {
			out = append(out, Candidate{Engine: name})
			continue
		}
		for _, w := range workers {
			out = append(out, Candidate{Engine: name, Workers: w, ParallelThreshold: 1})
		}
	}
	return out
}
