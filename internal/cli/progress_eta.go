package cli

import (
	"fmt"
	"time"
)

// etaCap bounds the estimate shown to the user.
const etaCap = 24 * time.Hour

// ProgressWithETA adds a time estimate to ProgressState. The estimate
// covers the attempts in flight only: progress falls back to zero when a
// run starts a new attempt, and the rate is then measured afresh.
type ProgressWithETA struct {
	*ProgressState
	attemptStart time.Time
	lastUpdate   time.Time
	lastProgress float64
	rate         float64 // smoothed progress per second
}

// NewProgressWithETA tracks numRuns runs.
func NewProgressWithETA(numRuns int) *ProgressWithETA {
	now := time.Now()
	return &ProgressWithETA{
		ProgressState: NewProgressState(numRuns),
		attemptStart:  now,
		lastUpdate:    now,
	}
}

// UpdateWithETA records a sample and returns the average progress with the
// current estimate, zero while there is not enough data.
func (p *ProgressWithETA) UpdateWithETA(index, try int, value float64) (progress float64, eta time.Duration) {
	p.Update(index, try, value)
	progress = p.CalculateAverage()
	now := time.Now()

	if progress < p.lastProgress {
		p.attemptStart = now
		p.lastUpdate = now
		p.lastProgress = progress
		p.rate = 0
		return progress, 0
	}

	elapsed := now.Sub(p.attemptStart)
	if elapsed < 100*time.Millisecond || progress <= 0.001 {
		p.lastUpdate = now
		p.lastProgress = progress
		return progress, 0
	}

	if dt := now.Sub(p.lastUpdate).Seconds(); dt > 0.05 {
		if delta := progress - p.lastProgress; delta > 0 {
			instant := delta / dt
			if p.rate > 0 {
				p.rate = 0.7*p.rate + 0.3*instant
			} else {
				p.rate = progress / elapsed.Seconds()
			}
		}
		p.lastUpdate = now
		p.lastProgress = progress
	}
	return progress, p.GetETA()
}

// GetETA is the estimate at the last known rate.
func (p *ProgressWithETA) GetETA() time.Duration {
	progress := p.CalculateAverage()
	if p.rate <= 0 || progress >= 1 {
		return 0
	}
	eta := time.Duration((1 - progress) / p.rate * float64(time.Second))
	return min(eta, etaCap)
}

// FormatETA renders an estimate as "< 1s", "42s", "2m30s" or "1h15m".
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		m, s := int(eta.Minutes()), int(eta.Seconds())%60
		if s > 0 {
			return fmt.Sprintf("%dm%ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	default:
		h, m := int(eta.Hours()), int(eta.Minutes())%60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
}

// FormatProgressBarWithETA renders "45.00% [████░░░░] ETA: 2m30s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("%6.2f%% [%s] ETA: %s", progress*100, progressBar(progress, width), FormatETA(eta))
}
