// Package steps computes step totals over rolling windows from an external step source.
package steps

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"example.com/sedentary/internal/domain"
)

// Source answers cumulative step queries over [start, end). Implementations
// return domain.ErrDataUnavailable when they lack data or permission.
type Source interface {
	QueryCumulativeSteps(ctx context.Context, start, end time.Time) (uint32, error)
}

// Option configures optional behaviour for the Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source used to derive windows.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// WithLocation sets the timezone used for the start of day.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithLogger overrides the logger used to report unavailable data.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// Aggregator holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	source Source
	now    func() time.Time
	loc    *time.Location
	logger *zap.SugaredLogger
}

// NewAggregator constructs an Aggregator over source.
func NewAggregator(source Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		source: source,
		now:    time.Now,
		loc:    time.Local,
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SumSteps returns the total for [start, end). Source failures yield a zero
// total with Unavailable set rather than an error.
func (a *Aggregator) SumSteps(ctx context.Context, start, end time.Time) domain.StepWindow {
	window := domain.StepWindow{Start: start, End: end}
	if !end.After(start) {
		return window
	}

	total, err := a.source.QueryCumulativeSteps(ctx, start, end)
	if err != nil {
		if !errors.Is(err, domain.ErrDataUnavailable) {
			a.logger.Warnw("step source query failed", "start", start, "end", end, "error", err)
		}
		unavailableCounter.Inc()
		window.Unavailable = true
		return window
	}
	window.Total = total
	return window
}

// Today returns the total from the start of the local day until now.
func (a *Aggregator) Today(ctx context.Context) domain.StepWindow {
	now := a.now()
	return a.SumSteps(ctx, domain.StartOfDay(now, a.loc), now)
}

// LastHour returns the total for the hour ending now.
func (a *Aggregator) LastHour(ctx context.Context) domain.StepWindow {
	now := a.now()
	return a.SumSteps(ctx, now.Add(-time.Hour), now)
}
