package shor

import (
	"fmt"
	"time"

	"github.com/agbru/shorsim/internal/contfrac"
	"github.com/agbru/shorsim/internal/numtheory"
	"github.com/agbru/shorsim/internal/quantum"
	"github.com/agbru/shorsim/internal/transform"
)

// Stage is a step of a single attempt.
type Stage int

const (
	StageChoosingBase Stage = iota
	StageBuildingEntangledState
	StageMeasuringSecondRegister
	StageCollapsingFirstRegister
	StageTransforming
	StageMeasuringFirstRegister
	StageExtractingPeriod
	StageValidatingFactors
	StageDone
)

var stageNames = [...]string{
	"choosing_base",
	"building_entangled_state",
	"measuring_second_register",
	"collapsing_first_register",
	"transforming",
	"measuring_first_register",
	"extracting_period",
	"validating_factors",
	"done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// MarshalText encodes the stage name.
func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Outcome is how an attempt ended.
type Outcome int

const (
	OutcomeRetry Outcome = iota
	OutcomeSuccess
)

func (o Outcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "retry"
}

// MarshalText encodes the outcome name.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Reason names the retryable cause behind an OutcomeRetry.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNoCoprime
	ReasonMeasureSecond
	ReasonMeasureFirst
	ReasonZeroMeasurement
	ReasonOddPeriod
	ReasonZeroOperand
	ReasonTrivialFactor
)

var reasonNames = [...]string{
	"none",
	"no_coprime",
	"measure_second",
	"measure_first",
	"zero_measurement",
	"odd_period",
	"zero_operand",
	"trivial_factor",
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return fmt.Sprintf("reason(%d)", int(r))
	}
	return reasonNames[r]
}

// MarshalText encodes the reason name.
func (r Reason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Describe returns a sentence suitable for attempt logs.
func (r Reason) Describe() string {
	switch r {
	case ReasonNoCoprime:
		return "no base coprime to N was drawn"
	case ReasonMeasureSecond:
		return "the second register could not be measured"
	case ReasonMeasureFirst:
		return "the first register could not be measured"
	case ReasonZeroMeasurement:
		return "the first register measured 0, which carries no period"
	case ReasonOddPeriod:
		return "the period candidate is odd"
	case ReasonZeroOperand:
		return "a GCD operand is zero"
	case ReasonTrivialFactor:
		return "only the trivial factors 1 and N were found"
	default:
		return "ok"
	}
}

// Attempt records one pass through the state machine. Fields are filled
// up to the stage the attempt reached.
type Attempt struct {
	Number  int     `json:"number"`
	Stage   Stage   `json:"stage"`
	Outcome Outcome `json:"outcome"`
	Reason  Reason  `json:"reason"`

	Base  int `json:"base"`
	Value int `json:"value"`
	// M is the first register reading after the transform.
	M     int     `json:"m"`
	Ratio float64 `json:"ratio"`
	// Fraction is p/den after the period policy.
	Fraction contfrac.Fraction `json:"fraction"`
	A        int               `json:"a"`
	B        int               `json:"b"`
	Factor   int               `json:"factor"`

	Transform transform.Stats `json:"transform"`
	Duration  time.Duration   `json:"duration"`
}

// Err maps a failed attempt to the matching error class, or nil on
// success.
func (a Attempt) Err() error {
	switch a.Reason {
	case ReasonNone:
		return nil
	case ReasonNoCoprime:
		return numtheory.ErrNoCoprime
	case ReasonMeasureSecond, ReasonMeasureFirst:
		return fmt.Errorf("%w: %s", quantum.ErrMeasurement, a.Reason.Describe())
	default:
		return fmt.Errorf("%w: %s", ErrDegeneratePeriod, a.Reason.Describe())
	}
}

// ApplyPeriodPolicy adjusts the convergent p/den read from the first
// register. An odd denominator is doubled while 2·den stays below q; a
// denominator that is still odd is rejected; a denominator of 2 is doubled
// once more so den/2 is never 1.
func ApplyPeriodPolicy(f contfrac.Fraction, q int) (contfrac.Fraction, bool) {
	if f.Den%2 == 1 && 2*f.Den < q {
		f.Num, f.Den = 2*f.Num, 2*f.Den
	}
	if f.Den%2 == 1 {
		return f, false
	}
	if f.Den == 2 {
		f.Num, f.Den = 2*f.Num, 2*f.Den
	}
	return f, true
}

// FactorFromPeriod derives a factor candidate from base x and an even
// period candidate den using a = (x+1)^(den/2) and b = (x-1)^(den/2)
// mod n. A zero operand or a trivial GCD is reported as the Reason.
func FactorFromPeriod(n, x, den int) (factor, a, b int, reason Reason) {
	a = numtheory.ModExp(x+1, den/2, n)
	b = numtheory.ModExp(x-1, den/2, n)
	if a == 0 || b == 0 {
		return 0, a, b, ReasonZeroOperand
	}
	factor = max(numtheory.GCD(n, a), numtheory.GCD(n, b))
	if factor == 1 || factor == n {
		return factor, a, b, ReasonTrivialFactor
	}
	return factor, a, b, ReasonNone
}
