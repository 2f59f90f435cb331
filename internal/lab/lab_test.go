package lab

import (
	"context"
	"testing"

	apperrors "github.com/agbru/shorsim/internal/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodFindsFactors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n, x, den int
		factor    int
		outcome   Outcome
	}{
		{35, 13, 4, 7, OutcomeFactor},
		{35, 13, 2, 7, OutcomeFactor},
		{35, 3, 4, 5, OutcomeFactor},
		{15, 4, 2, 5, OutcomeFactor},
		{15, 7, 2, 3, OutcomeFactor},
		{15, 14, 2, 0, OutcomeZeroOperand},
		{21, 4, 6, 0, OutcomeZeroOperand},
		{15, 1, 2, 0, OutcomeZeroOperand},
		{21, 2, 6, 7, OutcomeFactor},
		{21, 5, 2, 3, OutcomeFactor},
		{15, 3, 2, 1, OutcomeTrivial},
	}
	for _, tt := range tests {
		factor, outcome := PeriodFindsFactors(tt.n, tt.x, tt.den)
		assert.Equal(t, tt.outcome, outcome, "n=%d x=%d den=%d", tt.n, tt.x, tt.den)
		assert.Equal(t, tt.factor, factor, "n=%d x=%d den=%d", tt.n, tt.x, tt.den)
	}
}

func TestScanBase(t *testing.T) {
	t.Parallel()
	want := []WorkingPeriod{
		{Period: 2, Factor: 5, Exact: true},
		{Period: 6, Factor: 5, Exact: true},
		{Period: 10, Factor: 5, Exact: true},
		{Period: 14, Factor: 5, Exact: true},
	}
	if diff := cmp.Diff(want, ScanBase(15, 4)); diff != "" {
		t.Errorf("ScanBase(15, 4) mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, ScanBase(15, 1))
}

func TestFindWorkingPeriods(t *testing.T) {
	t.Parallel()
	got, err := FindWorkingPeriods(context.Background(), 15, ExploreOptions{From: 2, To: 15, Limit: 3, Workers: 2})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 3, 4}, []int{got[0].X, got[1].X, got[2].X})
	for _, wb := range got {
		assert.Equal(t, 15, wb.N)
	}
	want := []WorkingPeriod{
		{Period: 4, Factor: 5},
		{Period: 8, Factor: 5},
		{Period: 12, Factor: 5},
	}
	if diff := cmp.Diff(want, got[1].Periods); diff != "" {
		t.Errorf("x=3 periods mismatch (-want +got):\n%s", diff)
	}
}

func TestFindWorkingPeriodsDefaults(t *testing.T) {
	t.Parallel()
	got, err := FindWorkingPeriods(context.Background(), 109*29, ExploreOptions{})
	require.NoError(t, err)
	require.Len(t, got, DefaultLimit)

	xs := []int{got[0].X, got[1].X, got[2].X}
	assert.Equal(t, []int{20, 21, 22}, xs)
	assert.Len(t, got[0].Periods, 271)
	assert.Len(t, got[1].Periods, 164)
	assert.Equal(t, WorkingPeriod{Period: 14, Factor: 29}, got[0].Periods[0])
	assert.Equal(t, WorkingPeriod{Period: 54, Factor: 109}, got[1].Periods[1])
}

func TestFindWorkingPeriodsWorkerCountIrrelevant(t *testing.T) {
	t.Parallel()
	base, err := FindWorkingPeriods(context.Background(), 35, ExploreOptions{From: 2, To: 35, Limit: 10, Workers: 1})
	require.NoError(t, err)
	for _, workers := range []int{2, 3, 16} {
		got, err := FindWorkingPeriods(context.Background(), 35, ExploreOptions{From: 2, To: 35, Limit: 10, Workers: workers})
		require.NoError(t, err)
		if diff := cmp.Diff(base, got); diff != "" {
			t.Errorf("workers=%d mismatch (-want +got):\n%s", workers, diff)
		}
	}
}

func TestFindWorkingPeriodsErrors(t *testing.T) {
	t.Parallel()
	_, err := FindWorkingPeriods(context.Background(), 2, ExploreOptions{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FindWorkingPeriods(ctx, 3161, ExploreOptions{})
	assert.ErrorIs(t, err, context.Canceled)

	got, err := FindWorkingPeriods(context.Background(), 35, ExploreOptions{From: 40})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPowerTable(t *testing.T) {
	t.Parallel()
	want := []PowerRow{
		{X: 2, Powers: []int{1, 2, 4, 8, 1, 2}, Order: 4},
		{X: 3, Powers: []int{1, 3, 9, 12, 6, 3}, Order: 0},
		{X: 4, Powers: []int{1, 4, 1, 4, 1, 4}, Order: 2},
	}
	if diff := cmp.Diff(want, PowerTable(15, 2, 5, 6)); diff != "" {
		t.Errorf("PowerTable mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, PowerTable(15, 10, 5, 3))
	assert.Len(t, PowerTable(15, 0, 100, 2), 15)
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "factor", OutcomeFactor.String())
	assert.Equal(t, "zero_operand", OutcomeZeroOperand.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}
