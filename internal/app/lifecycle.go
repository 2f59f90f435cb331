package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// SetupContext bounds ctx by timeout. A non-positive timeout only adds
// cancellation.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: The deadline for the run; zero or negative means none.
//
// Returns:
//   - context.Context: The bounded context.
//   - context.CancelFunc: Releases the context; defer it.
func SetupContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// SetupSignals cancels ctx on SIGINT or SIGTERM.
//
// Parameters:
//   - ctx: The parent context.
//
// Returns:
//   - context.Context: A context canceled on the first SIGINT or SIGTERM.
//   - context.CancelFunc: Stops signal delivery; defer it.
func SetupSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// SetupLifecycle combines SetupContext and SetupSignals. Defer Cleanup on
// the returned CancelFuncs.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: The deadline for the run, as for SetupContext.
//
// Returns:
//   - context.Context: A context ended by the deadline or a termination signal.
//   - *CancelFuncs: Both release functions, freed by Cleanup.
func SetupLifecycle(ctx context.Context, timeout time.Duration) (context.Context, *CancelFuncs) {
	ctx, cancelTimeout := SetupContext(ctx, timeout)
	ctx, stopSignals := SetupSignals(ctx)
	return ctx, &CancelFuncs{CancelTimeout: cancelTimeout, StopSignals: stopSignals}
}

// CancelFuncs holds what SetupLifecycle must release.
type CancelFuncs struct {
	CancelTimeout context.CancelFunc
	StopSignals   context.CancelFunc
}

// Cleanup stops signal delivery, then cancels the timeout. Nil fields are
// skipped.
func (c *CancelFuncs) Cleanup() {
	if c.StopSignals != nil {
		c.StopSignals()
	}
	if c.CancelTimeout != nil {
		c.CancelTimeout()
	}
}
