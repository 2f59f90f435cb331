// Package lab explores which period candidates would have produced a
// factor for a given N. It skips the simulated registers entirely and
// works from modular exponentiation alone, which makes it a quick way to
// see how forgiving the period-to-factor step is for a choice of base.
package lab

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/agbru/shorsim/internal/errors"
	"github.com/agbru/shorsim/internal/numtheory"
	"github.com/agbru/shorsim/internal/parallel"
	"github.com/rs/zerolog/log"
)

// Outcome classifies a period candidate.
type Outcome int

const (
	// OutcomeFactor means the candidate yields a proper factor.
	OutcomeFactor Outcome = iota
	// OutcomeZeroOperand means x^(p/2) ± 1 vanished mod N.
	OutcomeZeroOperand
	// OutcomeTrivial means only 1 or N came out.
	OutcomeTrivial
	// OutcomeZeroFactor means both GCDs were zero.
	OutcomeZeroFactor
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFactor:
		return "factor"
	case OutcomeZeroOperand:
		return "zero_operand"
	case OutcomeTrivial:
		return "trivial"
	case OutcomeZeroFactor:
		return "zero_factor"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// PeriodFindsFactors tests period candidate den for base x using
// v = x^(den/2) mod n and the operands (v+1) mod n and (v-1) mod n. The
// returned factor is only meaningful with OutcomeFactor.
func PeriodFindsFactors(n, x, den int) (int, Outcome) {
	v := numtheory.ModExp(x, den/2, n)
	a := (v + 1) % n
	b := (v + n - 1) % n
	if a == 0 || b == 0 {
		return 0, OutcomeZeroOperand
	}
	factor := max(numtheory.GCD(n, a), numtheory.GCD(n, b))
	switch factor {
	case 0:
		return 0, OutcomeZeroFactor
	case 1, n:
		return factor, OutcomeTrivial
	}
	return factor, OutcomeFactor
}

// WorkingPeriod is an even period candidate that produced a factor.
type WorkingPeriod struct {
	Period int `json:"period"`
	Factor int `json:"factor"`
	// Exact reports whether x^Period ≡ 1 (mod N), i.e. the candidate is
	// a multiple of the true order rather than a lucky hit.
	Exact bool `json:"exact"`
}

// WorkingBase lists the working periods found for one base.
type WorkingBase struct {
	N       int             `json:"n"`
	X       int             `json:"x"`
	Periods []WorkingPeriod `json:"periods"`
}

// ExploreOptions bounds FindWorkingPeriods.
type ExploreOptions struct {
	// From and To delimit the bases [From, To). Defaults 20 and 1000,
	// clipped to N.
	From, To int
	// Limit stops the scan after this many bases with working periods.
	// Default 3.
	Limit int
	// Workers caps concurrent base scans. Default 4.
	Workers int
}

// Explorer defaults.
const (
	DefaultFrom    = 20
	DefaultTo      = 1000
	DefaultLimit   = 3
	DefaultWorkers = 4
)

func (o ExploreOptions) normalized(n int) ExploreOptions {
	if o.From <= 0 {
		o.From = DefaultFrom
	}
	if o.To <= 0 {
		o.To = DefaultTo
	}
	o.To = min(o.To, n)
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	return o
}

// ScanBase returns every even period in [2, n) that yields a factor for
// base x.
func ScanBase(n, x int) []WorkingPeriod {
	var found []WorkingPeriod
	for p := 2; p < n; p += 2 {
		factor, outcome := PeriodFindsFactors(n, x, p)
		if outcome != OutcomeFactor {
			continue
		}
		found = append(found, WorkingPeriod{
			Period: p,
			Factor: factor,
			Exact:  numtheory.ModExp(x, p, n) == 1,
		})
	}
	return found
}

// FindWorkingPeriods scans bases in ascending order and returns the first
// opts.Limit of them that have at least one working period. Bases are
// scanned concurrently in batches; results keep ascending order.
//
// Parameters:
//   - ctx: Checked between batches of bases.
//   - n: The number to explore; must be at least 3.
//   - opts: Base range, result limit and concurrency.
//
// Returns:
//   - []WorkingBase: The bases with at least one working period, in ascending order.
//   - error: A ValidationError for n below 3, or the context error.
func FindWorkingPeriods(ctx context.Context, n int, opts ExploreOptions) ([]WorkingBase, error) {
	if n < 3 {
		return nil, apperrors.NewValidationError("n", "must be at least 3", n)
	}
	opts = opts.normalized(n)
	batch := opts.Workers * 8

	var result []WorkingBase
	for lo := opts.From; lo < opts.To && len(result) < opts.Limit; lo += batch {
		hi := min(lo+batch, opts.To)
		found, err := scanBatch(ctx, n, lo, hi, opts.Workers)
		if err != nil {
			return result, err
		}
		for i, periods := range found {
			if len(periods) == 0 {
				continue
			}
			result = append(result, WorkingBase{N: n, X: lo + i, Periods: periods})
			log.Debug().Int("n", n).Int("x", lo+i).Int("periods", len(periods)).Msg("working base")
			if len(result) == opts.Limit {
				break
			}
		}
	}
	return result, nil
}

func scanBatch(ctx context.Context, n, lo, hi, workers int) ([][]WorkingPeriod, error) {
	found := make([][]WorkingPeriod, hi-lo)
	var ec parallel.ErrorCollector
	var wg sync.WaitGroup
	for _, span := range parallel.SplitRange(hi-lo, workers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := span.Lo; i < span.Hi; i++ {
				if err := ctx.Err(); err != nil {
					ec.SetError(err)
					return
				}
				found[i] = ScanBase(n, lo+i)
			}
		}()
	}
	wg.Wait()
	if err := ec.Err(); err != nil {
		return nil, err
	}
	return found, nil
}

// PowerRow is x^i mod N for i in [0, count).
type PowerRow struct {
	X      int   `json:"x"`
	Powers []int `json:"powers"`
	// Order is the multiplicative order of X, 0 if X shares a factor
	// with N.
	Order int `json:"order"`
}

// PowerTable lists the first count powers of every base in [from, to)
// modulo n.
func PowerTable(n, from, to, count int) []PowerRow {
	from = max(from, 0)
	to = min(to, n)
	if n <= 0 || from >= to {
		return nil
	}
	rows := make([]PowerRow, 0, to-from)
	for x := from; x < to; x++ {
		order, _ := numtheory.MultiplicativeOrder(x, n)
		rows = append(rows, PowerRow{X: x, Powers: numtheory.PowersModN(x, n, count), Order: order})
	}
	return rows
}
