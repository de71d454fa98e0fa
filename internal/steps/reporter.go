package steps

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"example.com/sedentary/internal/domain"
)

// DefaultReportSchedule refreshes the window gauges once a minute.
const DefaultReportSchedule = "@every 1m"

// Reporter periodically publishes the today and last-hour windows as gauges.
type Reporter struct {
	agg     *Aggregator
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewReporter constructs a Reporter for agg.
func NewReporter(agg *Aggregator, logger *zap.SugaredLogger) *Reporter {
	return &Reporter{
		agg:     agg,
		cron:    cron.New(),
		timeout: 10 * time.Second,
		logger:  logger,
	}
}

// Start schedules refreshes (standard cron or "@every" syntax) and runs one immediately.
func (r *Reporter) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultReportSchedule
	}
	if _, err := r.cron.AddFunc(schedule, r.refreshJob); err != nil {
		return err
	}
	r.cron.Start()
	go r.refreshJob()
	r.logger.Infow("step reporter started", "schedule", schedule)
	return nil
}

// Stop halts scheduling and returns a context done once running jobs finish.
func (r *Reporter) Stop() context.Context {
	return r.cron.Stop()
}

// Refresh queries both canonical windows and updates the gauges.
func (r *Reporter) Refresh(ctx context.Context) (today, lastHour domain.StepWindow) {
	today = r.agg.Today(ctx)
	lastHour = r.agg.LastHour(ctx)
	publish("today", today)
	publish("last_hour", lastHour)
	return today, lastHour
}

func (r *Reporter) refreshJob() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	today, lastHour := r.Refresh(ctx)
	r.logger.Debugw("step windows refreshed",
		"today", today.Total, "today_unavailable", today.Unavailable,
		"last_hour", lastHour.Total, "last_hour_unavailable", lastHour.Unavailable)
}

func publish(window string, w domain.StepWindow) {
	windowStepsGauge.WithLabelValues(window).Set(float64(w.Total))
	unavailable := 0.0
	if w.Unavailable {
		unavailable = 1
	}
	windowUnavailableGauge.WithLabelValues(window).Set(unavailable)
}
