package shor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/agbru/shorsim/internal/contfrac"
	"github.com/agbru/shorsim/internal/numtheory"
	"github.com/agbru/shorsim/internal/quantum"
	"github.com/agbru/shorsim/internal/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T, n int, draws ...float64) *runner {
	t.Helper()
	layout, err := NewLayout(n)
	require.NoError(t, err)
	return &runner{layout: layout, src: rng.NewSequence(draws...), opts: Options{}.normalized()}
}

func TestAttemptWithBase(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		n, x    int
		draws   []float64
		value   int
		m       int
		stage   Stage
		reason  Reason
		frac    contfrac.Fraction
		factor  int
		success bool
	}{
		{
			name: "quarter period", n: 35, x: 13, draws: []float64{0.3, 0.8},
			value: 13, m: 1536, stage: StageDone, reason: ReasonNone,
			frac: contfrac.Fraction{Num: 3, Den: 4}, factor: 7, success: true,
		},
		{
			name: "first peak", n: 35, x: 13, draws: []float64{0.3, 0.3},
			value: 13, m: 512, stage: StageDone, reason: ReasonNone,
			frac: contfrac.Fraction{Num: 1, Den: 4}, factor: 7, success: true,
		},
		{
			name: "half is doubled", n: 35, x: 13, draws: []float64{0.3, 0.55},
			value: 13, m: 1024, stage: StageDone, reason: ReasonNone,
			frac: contfrac.Fraction{Num: 2, Den: 4}, factor: 7, success: true,
		},
		{
			name: "odd convergent is doubled", n: 21, x: 4, draws: []float64{0.1, 0.8},
			value: 1, m: 341, stage: StageDone, reason: ReasonNone,
			frac: contfrac.Fraction{Num: 4, Den: 6}, factor: 3, success: true,
		},
		{
			name: "zero reading", n: 21, x: 4, draws: []float64{0.1, 0.05},
			value: 1, m: 0, stage: StageMeasuringFirstRegister, reason: ReasonZeroMeasurement,
		},
		{
			name: "trivial factors", n: 35, x: 3, draws: []float64{0.1, 0.3},
			value: 3, m: 512, stage: StageValidatingFactors, reason: ReasonTrivialFactor,
			frac: contfrac.Fraction{Num: 1, Den: 4}, factor: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newRunner(t, tt.n, tt.draws...)
			att, err := r.attemptWithBase(context.Background(), 1, tt.x)
			require.NoError(t, err)

			assert.Equal(t, tt.x, att.Base)
			assert.Equal(t, tt.value, att.Value)
			assert.Equal(t, tt.m, att.M)
			assert.Equal(t, tt.stage, att.Stage)
			assert.Equal(t, tt.reason, att.Reason)
			assert.Equal(t, tt.success, att.Outcome == OutcomeSuccess)
			if tt.m != 0 {
				assert.Equal(t, tt.frac, att.Fraction)
				assert.Equal(t, tt.factor, att.Factor)
				assert.InDelta(t, float64(tt.m)/float64(r.layout.Q), att.Ratio, 1e-15)
			}
			assert.Equal(t, "dft", att.Transform.Engine)
			assert.Equal(t, r.layout.Q, att.Transform.Size)
		})
	}
}

func TestAttemptOddPeriodRejected(t *testing.T) {
	t.Parallel()
	r := newRunner(t, 21, 0.1, 0.55)
	att, err := r.attemptWithBase(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 171, att.M)
	assert.Equal(t, ReasonOddPeriod, att.Reason)
	assert.Equal(t, StageExtractingPeriod, att.Stage)
	assert.Equal(t, 1, att.Fraction.Den%2)
	assert.GreaterOrEqual(t, 2*att.Fraction.Den, r.layout.Q)
	assert.ErrorIs(t, att.Err(), ErrDegeneratePeriod)
}

func TestAttemptCollapsedStateIsPeriodic(t *testing.T) {
	t.Parallel()
	// Rebuild what the first register holds right after the collapse and
	// check that only the exponents with the measured residue survive.
	layout, err := NewLayout(21)
	require.NoError(t, err)
	powers := numtheory.PowersModN(4, 21, layout.Q)
	reg, err := quantum.New(layout.FirstQubits)
	require.NoError(t, err)
	collapse := make([]float64, layout.Q)
	for i, v := range powers {
		if v == 16 {
			collapse[i] = 1
		}
	}
	require.NoError(t, reg.SetRealState(collapse))
	require.NoError(t, reg.Normalize())
	assert.InDelta(t, 1.0, reg.TotalProbability(), 1e-12)
	for i := range layout.Q {
		if i%3 == 2 {
			assert.Greater(t, reg.Probability(i), 0.0, "i=%d", i)
		} else {
			assert.Zero(t, reg.Probability(i), "i=%d", i)
		}
	}
}

func TestApplyPeriodPolicy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   contfrac.Fraction
		q    int
		want contfrac.Fraction
		ok   bool
	}{
		{contfrac.Fraction{Num: 1, Den: 4}, 256, contfrac.Fraction{Num: 1, Den: 4}, true},
		{contfrac.Fraction{Num: 1, Den: 2}, 256, contfrac.Fraction{Num: 2, Den: 4}, true},
		{contfrac.Fraction{Num: 2, Den: 3}, 512, contfrac.Fraction{Num: 4, Den: 6}, true},
		{contfrac.Fraction{Num: 1, Den: 1}, 256, contfrac.Fraction{Num: 4, Den: 4}, true},
		{contfrac.Fraction{Num: 5, Den: 12}, 2048, contfrac.Fraction{Num: 5, Den: 12}, true},
		{contfrac.Fraction{Num: 3, Den: 7}, 8, contfrac.Fraction{Num: 3, Den: 7}, false},
		{contfrac.Fraction{Num: 170, Den: 509}, 512, contfrac.Fraction{Num: 170, Den: 509}, false},
	}
	for _, tt := range tests {
		got, ok := ApplyPeriodPolicy(tt.in, tt.q)
		assert.Equal(t, tt.ok, ok, "%v q=%d", tt.in, tt.q)
		assert.Equal(t, tt.want, got, "%v q=%d", tt.in, tt.q)
		if ok {
			assert.Zero(t, got.Den%2)
			assert.NotEqual(t, 2, got.Den)
		}
	}
}

func TestFactorFromPeriod(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n, x, den  int
		factor     int
		a, b       int
		wantReason Reason
	}{
		{15, 4, 4, 5, 10, 9, ReasonNone},
		{15, 7, 4, 3, 4, 6, ReasonNone},
		{35, 13, 4, 7, 21, 4, ReasonNone},
		{21, 4, 6, 3, 20, 6, ReasonNone},
		{35, 3, 4, 1, 16, 4, ReasonTrivialFactor},
		{15, 14, 2, 0, 0, 13, ReasonZeroOperand},
	}
	for _, tt := range tests {
		factor, a, b, reason := FactorFromPeriod(tt.n, tt.x, tt.den)
		assert.Equal(t, tt.wantReason, reason, "n=%d x=%d den=%d", tt.n, tt.x, tt.den)
		assert.Equal(t, tt.a, a)
		assert.Equal(t, tt.b, b)
		assert.Equal(t, tt.factor, factor)
	}
}

func TestAttemptErr(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Attempt{Reason: ReasonNone}.Err())
	assert.ErrorIs(t, Attempt{Reason: ReasonNoCoprime}.Err(), numtheory.ErrNoCoprime)
	assert.ErrorIs(t, Attempt{Reason: ReasonMeasureFirst}.Err(), quantum.ErrMeasurement)
	assert.ErrorIs(t, Attempt{Reason: ReasonTrivialFactor}.Err(), ErrDegeneratePeriod)
	assert.ErrorIs(t, Attempt{Reason: ReasonZeroOperand}.Err(), ErrDegeneratePeriod)
}

func TestEnumText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "validating_factors", StageValidatingFactors.String())
	assert.Equal(t, "stage(42)", Stage(42).String())
	assert.Equal(t, "odd_period", ReasonOddPeriod.String())
	assert.Equal(t, "reason(-1)", Reason(-1).String())
	assert.Equal(t, "ok", ReasonNone.Describe())

	raw, err := json.Marshal(Attempt{Stage: StageDone, Outcome: OutcomeSuccess, Reason: ReasonNone})
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "done", decoded["stage"])
	assert.Equal(t, "success", decoded["outcome"])
	assert.Equal(t, "none", decoded["reason"])
}
