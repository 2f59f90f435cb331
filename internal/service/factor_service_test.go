package service

import (
	"context"
	"sync"
	"testing"

	"github.com/agbru/shorsim/internal/config"
	apperrors "github.com/agbru/shorsim/internal/errors"
	"github.com/agbru/shorsim/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newService(maxN int) *FactorService {
	cfg := config.AppConfig{MaxTries: 20, Engine: "dft"}
	return NewFactorService(transform.NewDefaultFactory(), cfg, maxN, nil)
}

func TestFactorize(t *testing.T) {
	t.Parallel()
	svc := newService(1000)
	resp, err := svc.Factorize(context.Background(), Request{N: 21, Seed: 5})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), resp.Seed)
	assert.Equal(t, 21, resp.Factor*resp.Cofactor)
	assert.Equal(t, 3, resp.Factor)
	assert.Equal(t, "dft", resp.Engine)

	again, err := svc.Factorize(context.Background(), Request{N: 21, Seed: 5})
	require.NoError(t, err)
	assert.Equal(t, resp.Tries, again.Tries)
	assert.Equal(t, resp.Base, again.Base)
}

func TestFactorizeDrawsSeed(t *testing.T) {
	t.Parallel()
	resp, err := newService(0).Factorize(context.Background(), Request{N: 15, Engine: "fft"})
	require.NoError(t, err)
	assert.NotZero(t, resp.Seed)
	assert.Equal(t, "fft", resp.Engine)
}

func TestFactorizeRejects(t *testing.T) {
	t.Parallel()
	svc := newService(100)
	ctx := context.Background()

	_, err := svc.Factorize(ctx, Request{N: 221})
	assert.ErrorIs(t, err, ErrMaxValueExceeded)

	_, err = svc.Factorize(ctx, Request{N: 15, MaxTries: 21})
	assert.ErrorIs(t, err, ErrMaxTriesExceeded)

	_, err = svc.Factorize(ctx, Request{N: 15, Engine: "qpu"})
	assert.Error(t, err)

	_, err = svc.Factorize(ctx, Request{N: 17})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestExplore(t *testing.T) {
	t.Parallel()
	svc := newService(100)
	bases, err := svc.Explore(context.Background(), 35, 2)
	require.NoError(t, err)
	require.Len(t, bases, 2)
	assert.Equal(t, []int{20, 21}, []int{bases[0].X, bases[1].X})

	bases, err = newService(0).Explore(context.Background(), 3161, 1)
	require.NoError(t, err)
	require.Len(t, bases, 1)
	assert.Equal(t, 20, bases[0].X)

	_, err = svc.Explore(context.Background(), 3161, 1)
	assert.ErrorIs(t, err, ErrMaxValueExceeded)
}

func TestEngines(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"dft", "fft", "parallel"}, newService(0).Engines())
}

type slotRecorder struct {
	mu    sync.Mutex
	slots map[int]bool
	last  float64
}

func (r *slotRecorder) Update(index, _ int, progress float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[index] = true
	r.last = progress
}

func TestObserve(t *testing.T) {
	t.Parallel()
	svc := newService(0)
	rec := &slotRecorder{slots: map[int]bool{}}
	svc.Observe(rec)

	for range ProgressSlots + 1 {
		_, err := svc.Factorize(context.Background(), Request{N: 15, Seed: 3})
		require.NoError(t, err)
	}
	assert.Len(t, rec.slots, ProgressSlots, "run indices wrap around")
	assert.Equal(t, 1.0, rec.last)
}
