package shor

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ─────────────────────────────────────────────────────────────────────────────
// Subject
// ─────────────────────────────────────────────────────────────────────────────

// ProgressUpdate is a progress sample sent to the UI. Index tells apart
// concurrent runs; Value is the completed fraction of the current attempt.
type ProgressUpdate struct {
	Index int
	Try   int
	Value float64
}

// ProgressObserver receives progress notifications.
type ProgressObserver interface {
	// Update is called with the run index, the attempt number and the
	// completed fraction of that attempt in [0, 1].
	Update(index, try int, progress float64)
}

// ProgressSubject fans progress out to its observers. It is safe for
// concurrent use.
type ProgressSubject struct {
	mu        sync.RWMutex
	observers []ProgressObserver
}

// NewProgressSubject returns a subject with no observers.
func NewProgressSubject() *ProgressSubject {
	return &ProgressSubject{}
}

// Register adds an observer; nil is ignored.
func (s *ProgressSubject) Register(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Unregister removes an observer if present.
func (s *ProgressSubject) Unregister(observer ProgressObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o == observer {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// Notify forwards an update to every observer in registration order.
func (s *ProgressSubject) Notify(index, try int, progress float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.observers {
		o.Update(index, try, progress)
	}
}

// ObserverCount returns the number of registered observers.
func (s *ProgressSubject) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// ─────────────────────────────────────────────────────────────────────────────
// Observers
// ─────────────────────────────────────────────────────────────────────────────

// ChannelObserver forwards updates to a channel without ever blocking;
// updates are dropped while the channel is full.
type ChannelObserver struct {
	channel chan<- ProgressUpdate
}

// NewChannelObserver returns an observer writing to ch.
func NewChannelObserver(ch chan<- ProgressUpdate) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

// Update implements ProgressObserver.
func (o *ChannelObserver) Update(index, try int, progress float64) {
	if o.channel == nil {
		return
	}
	progress = min(max(progress, 0), 1)
	select {
	case o.channel <- ProgressUpdate{Index: index, Try: try, Value: progress}:
	default:
	}
}

// LoggingObserver writes throttled debug lines through zerolog.
type LoggingObserver struct {
	logger    zerolog.Logger
	threshold float64
	mu        sync.Mutex
	last      map[int]float64
}

// NewLoggingObserver logs whenever progress moved by at least threshold
// (default 0.1) since the last line for the same run.
func NewLoggingObserver(logger zerolog.Logger, threshold float64) *LoggingObserver {
	if threshold <= 0 {
		threshold = 0.1
	}
	return &LoggingObserver{logger: logger, threshold: threshold, last: make(map[int]float64)}
}

// Update implements ProgressObserver.
func (o *LoggingObserver) Update(index, try int, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev, seen := o.last[index]
	// a drop means a new attempt restarted the bar
	restarted := seen && progress < prev
	if !seen || restarted || progress >= 1 || progress-prev >= o.threshold {
		o.logger.Debug().
			Int("run", index).
			Int("try", try).
			Str("percent", fmt.Sprintf("%.1f%%", progress*100)).
			Msg("factorization progress")
		o.last[index] = progress
	}
}

var progressGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "shorsim_factorization_progress",
		Help: "Completed fraction of the current attempt of each run (0.0 to 1.0)",
	},
	[]string{"run"},
)

// MetricsObserver exports progress as a Prometheus gauge.
type MetricsObserver struct {
	gauge *prometheus.GaugeVec
}

// NewMetricsObserver returns an observer backed by the shared gauge.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{gauge: progressGauge}
}

// Update implements ProgressObserver.
func (o *MetricsObserver) Update(index, _ int, progress float64) {
	o.gauge.WithLabelValues(fmt.Sprintf("%d", index)).Set(progress)
}

// ResetMetrics clears every run's gauge.
func (o *MetricsObserver) ResetMetrics() {
	o.gauge.Reset()
}

// NoOpObserver discards updates.
type NoOpObserver struct{}

// Update implements ProgressObserver.
func (NoOpObserver) Update(int, int, float64) {}
