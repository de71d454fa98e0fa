// Package tracker implements the inactivity state machine that turns activity
// samples and motion readings into at most one alert per sedentary episode.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/sedentary/internal/domain"
	"example.com/sedentary/internal/motion"
)

// DefaultStaleness is how long classifier silence is tolerated before motion readings are consulted.
const DefaultStaleness = 10 * time.Second

const alertTitle = "Time to Move!"

// Dispatcher delivers an alert to the user.
type Dispatcher interface {
	Deliver(ctx context.Context, title, body string) error
}

// Option configures optional behaviour for the Tracker.
type Option func(*Tracker)

// WithLogger overrides the logger used to report transitions and delivery failures.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithFilter overrides the motion thresholds used on the fallback path.
func WithFilter(filter motion.Filter) Option {
	return func(t *Tracker) {
		t.filter = filter
	}
}

// WithStaleness sets the classifier silence window after which readings are used.
func WithStaleness(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.staleAfter = d
		}
	}
}

// WithAlertThreshold sets the initial alert threshold in minutes.
func WithAlertThreshold(minutes uint32) Option {
	return func(t *Tracker) {
		t.thresholdMinutes = minutes
	}
}

// WithDeliveryTimeout bounds each Dispatcher call.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		t.deliveryTimeout = d
	}
}

// Tracker owns the inactivity state. It is not safe for concurrent use; Monitor
// serialises access to it. Sample, reading and Tick times must come from the
// same clock.
type Tracker struct {
	dispatcher      Dispatcher
	filter          motion.Filter
	staleAfter      time.Duration
	deliveryTimeout time.Duration
	logger          *zap.SugaredLogger

	kind             domain.ActivityKind
	sedentarySince   time.Time
	episodeID        string
	elapsedSeconds   uint64
	thresholdMinutes uint32
	alertFired       bool

	lastClassifiedAt    time.Time
	lastConfidence      domain.Confidence
	lastFallbackAt      time.Time
	fallbackSedentary   bool
	classifierAvailable bool
	motionAvailable     bool
}

// New constructs a Tracker in the Moving state with zero elapsed time.
func New(dispatcher Dispatcher, opts ...Option) *Tracker {
	t := &Tracker{
		dispatcher:          dispatcher,
		filter:              motion.NewFilter(motion.DefaultMovingThreshold, motion.DefaultSedentaryEpsilon),
		staleAfter:          DefaultStaleness,
		logger:              zap.NewNop().Sugar(),
		kind:                domain.KindUnknown,
		thresholdMinutes:    domain.DefaultAlertThresholdMinutes,
		classifierAvailable: true,
		motionAvailable:     true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnActivitySample applies a classified sample. Low-confidence samples do not
// change the current kind.
func (t *Tracker) OnActivitySample(s domain.ActivitySample) {
	t.classifierAvailable = true
	t.lastClassifiedAt = s.Timestamp
	t.lastConfidence = s.Confidence

	if s.Confidence == domain.ConfidenceLow {
		lowConfidenceCounter.Inc()
	} else {
		t.kind = s.Kind
	}
	t.evaluate(s.Timestamp)
}

// OnMotionReading applies a reading as a synthetic classification when the
// classifier is silent, unavailable or low-confidence. It reports whether the
// reading was used.
func (t *Tracker) OnMotionReading(r domain.MotionReading) bool {
	t.motionAvailable = true
	if !t.fallbackActive(r.Timestamp) {
		return false
	}

	kind := t.filter.Classify(r)
	t.lastFallbackAt = r.Timestamp
	t.fallbackSedentary = kind == domain.KindStationary
	fallbackCounter.WithLabelValues(kind.String()).Inc()

	t.kind = kind
	t.evaluate(r.Timestamp)
	return true
}

// SetSensorAvailability records whether an input capability is present. With
// both inputs gone the tracker falls back to Unknown and stops alerting.
func (t *Tracker) SetSensorAvailability(source domain.SensorSource, available bool) {
	switch source {
	case domain.SourceClassifier:
		t.classifierAvailable = available
	case domain.SourceMotion:
		t.motionAvailable = available
	}

	if t.classifierAvailable || t.motionAvailable {
		return
	}
	t.logger.Warnw("no activity signal available", "error", domain.ErrSensorUnavailable)
	t.kind = domain.KindUnknown
	t.fallbackSedentary = false
	t.resetEpisode()
}

// Tick recomputes elapsed sedentary time from now and fires the alert once the
// threshold is crossed. It reports whether a delivery was attempted.
func (t *Tracker) Tick(ctx context.Context, now time.Time) bool {
	if !t.sedentary() {
		elapsedGauge.Set(0)
		return false
	}

	elapsed := now.Sub(t.sedentarySince)
	if elapsed < 0 {
		elapsed = 0
	}
	if secs := uint64(elapsed / time.Second); secs > t.elapsedSeconds {
		t.elapsedSeconds = secs
	}
	elapsedGauge.Set(float64(t.elapsedSeconds))

	if t.alertFired || t.elapsedSeconds < uint64(t.thresholdMinutes)*60 {
		return false
	}

	err := t.deliver(ctx, t.thresholdMinutes)
	t.alertFired = true
	if err != nil {
		alertsCounter.WithLabelValues("failed").Inc()
		t.logger.Errorw("inactivity alert delivery failed", "episode_id", t.episodeID, "elapsed_seconds", t.elapsedSeconds, "error", err)
		return true
	}
	alertsCounter.WithLabelValues("delivered").Inc()
	t.logger.Infow("inactivity alert delivered", "episode_id", t.episodeID, "elapsed_seconds", t.elapsedSeconds)
	return true
}

// SetAlertThreshold changes the threshold used from the next tick on.
func (t *Tracker) SetAlertThreshold(minutes uint32) {
	t.thresholdMinutes = minutes
}

// SendTestAlert delivers an alert without touching episode state.
func (t *Tracker) SendTestAlert(ctx context.Context) error {
	return t.deliver(ctx, t.thresholdMinutes)
}

// Status returns a read-only snapshot.
func (t *Tracker) Status() Status {
	st := Status{
		Kind:                    t.kind,
		Sedentary:               t.sedentary(),
		SedentarySince:          t.sedentarySince,
		EpisodeID:               t.episodeID,
		ElapsedSedentarySeconds: t.elapsedSeconds,
		AlertThresholdMinutes:   t.thresholdMinutes,
		AlertFired:              t.alertFired,
		ClassifierAvailable:     t.classifierAvailable,
		MotionAvailable:         t.motionAvailable,
	}
	if st.Sedentary {
		st.HumanReadableElapsed = FormatElapsed(t.elapsedSeconds)
	} else {
		st.HumanReadableElapsed = noEpisodeText
	}
	return st
}

func (t *Tracker) evaluate(at time.Time) {
	switch {
	case t.kind.IsMoving():
		if t.sedentary() {
			transitionsCounter.WithLabelValues("moving").Inc()
			t.logger.Debugw("motion resumed", "episode_id", t.episodeID, "kind", t.kind.String(), "elapsed_seconds", t.elapsedSeconds)
		}
		t.resetEpisode()
	case t.kind == domain.KindStationary:
		t.startEpisode(at)
	case t.recentFallbackSedentary(at):
		t.startEpisode(at)
	}
}

func (t *Tracker) startEpisode(at time.Time) {
	if t.sedentary() {
		return
	}
	t.sedentarySince = at
	t.episodeID = uuid.NewString()
	t.elapsedSeconds = 0
	t.alertFired = false
	transitionsCounter.WithLabelValues("sedentary").Inc()
	t.logger.Debugw("sedentary episode started", "episode_id", t.episodeID, "at", at)
}

func (t *Tracker) resetEpisode() {
	t.sedentarySince = time.Time{}
	t.episodeID = ""
	t.elapsedSeconds = 0
	t.alertFired = false
	elapsedGauge.Set(0)
}

func (t *Tracker) sedentary() bool {
	return !t.sedentarySince.IsZero()
}

func (t *Tracker) fallbackActive(now time.Time) bool {
	if !t.classifierAvailable || t.lastClassifiedAt.IsZero() {
		return true
	}
	if t.lastConfidence == domain.ConfidenceLow {
		return true
	}
	return now.Sub(t.lastClassifiedAt) > t.staleAfter
}

func (t *Tracker) recentFallbackSedentary(at time.Time) bool {
	if !t.fallbackSedentary || t.lastFallbackAt.IsZero() {
		return false
	}
	return at.Sub(t.lastFallbackAt) <= t.staleAfter
}

func (t *Tracker) deliver(ctx context.Context, thresholdMinutes uint32) error {
	if t.deliveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.deliveryTimeout)
		defer cancel()
	}
	body := fmt.Sprintf("You've been sitting for %s. Why not take a short walk?", FormatElapsed(uint64(thresholdMinutes)*60))
	return t.dispatcher.Deliver(ctx, alertTitle, body)
}
