package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"example.com/sedentary/internal/domain"
)

// DefaultTickInterval is the cadence at which elapsed time is re-evaluated.
const DefaultTickInterval = time.Second

// MonitorOption configures optional behaviour for the Monitor.
type MonitorOption func(*Monitor)

// WithClock overrides the time source used for ticks.
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithMonitorLogger overrides the logger used by the tick loop.
func WithMonitorLogger(logger *zap.SugaredLogger) MonitorOption {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// Monitor serialises samples, readings, settings changes and ticks against a
// single Tracker. Every method is one critical section, so cancelling Run never
// leaves a handler half-applied.
type Monitor struct {
	mu       sync.Mutex
	tracker  *Tracker
	interval time.Duration
	now      func() time.Time
	logger   *zap.SugaredLogger
}

// NewMonitor wraps tracker and ticks it every interval once Run is called.
func NewMonitor(tracker *Tracker, interval time.Duration, opts ...MonitorOption) *Monitor {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	m := &Monitor{
		tracker:  tracker,
		interval: interval,
		now:      time.Now,
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run ticks the tracker until ctx is cancelled. It may be called again after it
// returns to resume monitoring with the same state.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Infow("inactivity monitor started", "interval", m.interval)
	for {
		select {
		case <-ctx.Done():
			m.logger.Infow("inactivity monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick evaluates the tracker at the current clock reading.
func (m *Monitor) Tick(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracker.Tick(ctx, m.now())
}

// OnActivitySample forwards a classified sample. The sample is restamped with
// the monitor clock so transitions and ticks share one time base; device event
// times may be skewed or, during a consumer backlog, hours old.
func (m *Monitor) OnActivitySample(s domain.ActivitySample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Timestamp = m.now()
	m.tracker.OnActivitySample(s)
}

// OnMotionReading forwards a raw reading, restamped like OnActivitySample, and
// reports whether it was applied.
func (m *Monitor) OnMotionReading(r domain.MotionReading) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.Timestamp = m.now()
	return m.tracker.OnMotionReading(r)
}

// SetSensorAvailability forwards a capability change.
func (m *Monitor) SetSensorAvailability(source domain.SensorSource, available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracker.SetSensorAvailability(source, available)
}

// SetAlertThreshold changes the threshold from the next tick on.
func (m *Monitor) SetAlertThreshold(minutes uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracker.SetAlertThreshold(minutes)
}

// SendTestAlert delivers a test alert through the tracker's dispatcher.
func (m *Monitor) SendTestAlert(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracker.SendTestAlert(ctx)
}

// Status returns a snapshot of the tracker.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracker.Status()
}
