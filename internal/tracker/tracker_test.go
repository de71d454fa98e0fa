package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/sedentary/internal/domain"
)

var t0 = time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return t0.Add(time.Duration(seconds) * time.Second)
}

func sample(seconds int, kind domain.ActivityKind) domain.ActivitySample {
	return domain.ActivitySample{Timestamp: at(seconds), Kind: kind, Confidence: domain.ConfidenceHigh}
}

func newTestTracker(t *testing.T, d Dispatcher, opts ...Option) *Tracker {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t).Sugar())}, opts...)
	return New(d, opts...)
}

func TestSingleAlertWhenThresholdCrossed(t *testing.T) {
	d := &stubDispatcher{}
	tr := newTestTracker(t, d, WithAlertThreshold(45))

	tr.OnActivitySample(sample(0, domain.KindStationary))

	for s := 1; s < 2700; s++ {
		require.False(t, tr.Tick(context.Background(), at(s)))
	}
	require.Zero(t, d.count())

	require.True(t, tr.Tick(context.Background(), at(2700)))
	require.Equal(t, 1, d.count())
	require.Equal(t, "Time to Move!", d.lastTitle)
	require.Equal(t, "You've been sitting for 45 minutes. Why not take a short walk?", d.lastBody)

	for s := 2701; s <= 3600; s++ {
		require.False(t, tr.Tick(context.Background(), at(s)))
	}
	require.Equal(t, 1, d.count())

	st := tr.Status()
	require.True(t, st.AlertFired)
	require.Equal(t, uint64(3600), st.ElapsedSedentarySeconds)
	require.Equal(t, "1 hour", st.HumanReadableElapsed)
}

func TestWalkingGapRestartsTimer(t *testing.T) {
	d := &stubDispatcher{}
	tr := newTestTracker(t, d, WithAlertThreshold(45))

	tr.OnActivitySample(sample(0, domain.KindStationary))
	for s := 1; s < 1000; s++ {
		tr.Tick(context.Background(), at(s))
	}
	tr.OnActivitySample(sample(1000, domain.KindWalking))
	tr.OnActivitySample(sample(1001, domain.KindStationary))

	for s := 1001; s < 1001+2700; s++ {
		require.False(t, tr.Tick(context.Background(), at(s)), "fired early at %d", s)
	}
	require.True(t, tr.Tick(context.Background(), at(1001+2700)))
	require.Equal(t, 1, d.count())
}

func TestWalkingResetsElapsedAndFiredFlag(t *testing.T) {
	d := &stubDispatcher{}
	tr := newTestTracker(t, d, WithAlertThreshold(15))

	tr.OnActivitySample(sample(0, domain.KindStationary))
	tr.Tick(context.Background(), at(40*60))
	require.Equal(t, 1, d.count())

	st := tr.Status()
	require.True(t, st.AlertFired)
	require.Equal(t, uint64(2400), st.ElapsedSedentarySeconds)

	tr.OnActivitySample(sample(40*60+1, domain.KindWalking))
	st = tr.Status()
	require.False(t, st.Sedentary)
	require.False(t, st.AlertFired)
	require.Zero(t, st.ElapsedSedentarySeconds)
	require.True(t, st.SedentarySince.IsZero())
	require.Equal(t, domain.KindWalking, st.Kind)
	require.Equal(t, "No inactivity recorded", st.HumanReadableElapsed)
}

func TestThresholdChangeIsNotRetroactive(t *testing.T) {
	d := &stubDispatcher{}
	tr := newTestTracker(t, d, WithAlertThreshold(45))

	tr.OnActivitySample(sample(0, domain.KindStationary))
	tr.Tick(context.Background(), at(45*60))
	require.Equal(t, 1, d.count())

	tr.Tick(context.Background(), at(50*60))
	tr.SetAlertThreshold(60)
	for s := 50*60 + 1; s <= 70*60; s += 30 {
		tr.Tick(context.Background(), at(s))
	}
	require.Equal(t, 1, d.count())
	require.True(t, tr.Status().AlertFired)

	tr.OnActivitySample(sample(71*60, domain.KindRunning))
	start := 72 * 60
	tr.OnActivitySample(sample(start, domain.KindStationary))
	require.False(t, tr.Tick(context.Background(), at(start+45*60)))
	require.False(t, tr.Tick(context.Background(), at(start+60*60-1)))
	require.True(t, tr.Tick(context.Background(), at(start+60*60)))
	require.Equal(t, 2, d.count())
}

func TestLoweringThresholdFiresOnNextTick(t *testing.T) {
	d := &stubDispatcher{}
	tr := newTestTracker(t, d, WithAlertThreshold(60))

	tr.OnActivitySample(sample(0, domain.KindStationary))
	require.False(t, tr.Tick(context.Background(), at(20*60)))

	tr.SetAlertThreshold(15)
	require.True(t, tr.Tick(context.Background(), at(20*60+1)))
	require.Equal(t, 1, d.count())
}

func TestConsecutiveStationarySamplesKeepEpisodeStart(t *testing.T) {
	tr := newTestTracker(t, &stubDispatcher{})

	tr.OnActivitySample(sample(0, domain.KindStationary))
	first := tr.Status()
	tr.OnActivitySample(sample(30, domain.KindStationary))
	tr.OnActivitySample(sample(60, domain.KindStationary))
	second := tr.Status()

	require.Equal(t, at(0), second.SedentarySince)
	require.Equal(t, first.EpisodeID, second.EpisodeID)
	require.NotEmpty(t, second.EpisodeID)
}

func TestLowConfidenceSampleDoesNotChangeKind(t *testing.T) {
	tr := newTestTracker(t, &stubDispatcher{})

	tr.OnActivitySample(sample(0, domain.KindStationary))
	tr.OnActivitySample(domain.ActivitySample{Timestamp: at(10), Kind: domain.KindWalking, Confidence: domain.ConfidenceLow})

	st := tr.Status()
	require.Equal(t, domain.KindStationary, st.Kind)
	require.True(t, st.Sedentary)
	require.Equal(t, at(0), st.SedentarySince)
}

func TestDeliveryFailureIsNotRetriedWithinEpisode(t *testing.T) {
	d := &stubDispatcher{err: errors.New("permission denied")}
	tr := newTestTracker(t, d, WithAlertThreshold(15))
	failed := testutil.ToFloat64(alertsCounter.WithLabelValues("failed"))

	tr.OnActivitySample(sample(0, domain.KindStationary))
	require.True(t, tr.Tick(context.Background(), at(15*60)))
	for s := 15*60 + 1; s < 20*60; s++ {
		require.False(t, tr.Tick(context.Background(), at(s)))
	}

	require.Equal(t, 1, d.count())
	require.True(t, tr.Status().AlertFired)
	require.Equal(t, failed+1, testutil.ToFloat64(alertsCounter.WithLabelValues("failed")))

	tr.OnActivitySample(sample(20*60, domain.KindWalking))
	tr.OnActivitySample(sample(20*60+1, domain.KindStationary))
	require.True(t, tr.Tick(context.Background(), at(20*60+1+15*60)))
	require.Equal(t, 2, d.count())
}

func TestElapsedIsRecomputedFromEpisodeStart(t *testing.T) {
	tr := newTestTracker(t, &stubDispatcher{})

	tr.OnActivitySample(sample(0, domain.KindStationary))
	tr.Tick(context.Background(), at(100))
	tr.Tick(context.Background(), at(100))
	tr.Tick(context.Background(), at(98))
	require.Equal(t, uint64(100), tr.Status().ElapsedSedentarySeconds)

	tr.Tick(context.Background(), at(250).Add(900*time.Millisecond))
	require.Equal(t, uint64(250), tr.Status().ElapsedSedentarySeconds)
}

func TestMotionFallbackWithoutClassifier(t *testing.T) {
	tr := newTestTracker(t, &stubDispatcher{})

	require.True(t, tr.OnMotionReading(domain.MotionReading{Timestamp: at(0), X: 0.01}))
	st := tr.Status()
	require.True(t, st.Sedentary)
	require.Equal(t, domain.KindStationary, st.Kind)

	require.True(t, tr.OnMotionReading(domain.MotionReading{Timestamp: at(5), X: 0.4}))
	require.True(t, tr.Status().Sedentary, "ambiguous reading must not reset the episode")

	require.True(t, tr.OnMotionReading(domain.MotionReading{Timestamp: at(6), X: 2.5}))
	st = tr.Status()
	require.False(t, st.Sedentary)
	require.Equal(t, domain.KindWalking, st.Kind)
}

func TestMotionReadingsIgnoredWhileClassifierFresh(t *testing.T) {
	tr := newTestTracker(t, &stubDispatcher{}, WithStaleness(10*time.Second))

	tr.OnActivitySample(sample(0, domain.KindStationary))
	require.False(t, tr.OnMotionReading(domain.MotionReading{Timestamp: at(5), X: 3}))
	require.True(t, tr.Status().Sedentary)

	require.True(t, tr.OnMotionReading(domain.MotionReading{Timestamp: at(11), X: 3}))
	require.False(t, tr.Status().Sedentary)
}

func TestMotionReadingsUsedAfterLowConfidenceSample(t *testing.T) {
	tr := newTestTracker(t, &stubDispatcher{})

	tr.OnActivitySample(domain.ActivitySample{Timestamp: at(0), Kind: domain.KindWalking, Confidence: domain.ConfidenceLow})
	require.True(t, tr.OnMotionReading(domain.MotionReading{Timestamp: at(1), Z: 0.001}))
	require.True(t, tr.Status().Sedentary)
}

func TestUnknownSampleUsesRecentFallbackVerdict(t *testing.T) {
	tr := newTestTracker(t, &stubDispatcher{}, WithStaleness(10*time.Second))

	tr.OnActivitySample(domain.ActivitySample{Timestamp: at(0), Kind: domain.KindUnknown, Confidence: domain.ConfidenceMedium})
	require.False(t, tr.Status().Sedentary)

	tr.OnActivitySample(domain.ActivitySample{Timestamp: at(20), Kind: domain.KindUnknown, Confidence: domain.ConfidenceLow})
	require.True(t, tr.OnMotionReading(domain.MotionReading{Timestamp: at(21)}))
	require.Equal(t, at(21), tr.Status().SedentarySince)

	tr.OnActivitySample(sample(22, domain.KindWalking))
	require.False(t, tr.Status().Sedentary)

	tr.OnActivitySample(sample(25, domain.KindUnknown))
	st := tr.Status()
	require.True(t, st.Sedentary)
	require.Equal(t, at(25), st.SedentarySince)

	tr.OnActivitySample(sample(26, domain.KindWalking))
	tr.OnActivitySample(sample(40, domain.KindUnknown))
	require.False(t, tr.Status().Sedentary, "fallback verdict is stale")
}

func TestBothSensorsUnavailableStopsAlerting(t *testing.T) {
	d := &stubDispatcher{}
	tr := newTestTracker(t, d, WithAlertThreshold(15))

	tr.OnActivitySample(sample(0, domain.KindStationary))
	tr.SetSensorAvailability(domain.SourceClassifier, false)
	require.True(t, tr.Status().Sedentary, "motion still available")

	tr.SetSensorAvailability(domain.SourceMotion, false)
	st := tr.Status()
	require.False(t, st.Sedentary)
	require.Equal(t, domain.KindUnknown, st.Kind)
	require.False(t, tr.Tick(context.Background(), at(60*60)))
	require.Zero(t, d.count())

	tr.OnActivitySample(sample(61*60, domain.KindStationary))
	require.True(t, tr.Status().ClassifierAvailable)
	require.True(t, tr.Status().Sedentary)
}

func TestSendTestAlertLeavesEpisodeUntouched(t *testing.T) {
	d := &stubDispatcher{}
	tr := newTestTracker(t, d, WithAlertThreshold(30))

	tr.OnActivitySample(sample(0, domain.KindStationary))
	require.NoError(t, tr.SendTestAlert(context.Background()))
	require.Equal(t, 1, d.count())
	require.False(t, tr.Status().AlertFired)

	require.True(t, tr.Tick(context.Background(), at(30*60)))
	require.Equal(t, 2, d.count())
}

func TestDeliveryTimeoutIsApplied(t *testing.T) {
	d := &stubDispatcher{}
	tr := newTestTracker(t, d, WithAlertThreshold(15), WithDeliveryTimeout(time.Second))

	tr.OnActivitySample(sample(0, domain.KindStationary))
	tr.Tick(context.Background(), at(15*60))
	require.True(t, d.hadDeadline)
}

func TestFormatElapsed(t *testing.T) {
	cases := map[uint64]string{
		0:     "0 seconds",
		1:     "1 second",
		59:    "59 seconds",
		60:    "1 minute",
		61:    "1 minute, 1 second",
		2700:  "45 minutes",
		3600:  "1 hour",
		3605:  "1 hour, 5 seconds",
		3725:  "1 hour, 2 minutes",
		7322:  "2 hours, 2 minutes",
		90000: "25 hours",
	}
	for secs, want := range cases {
		require.Equal(t, want, FormatElapsed(secs), "seconds=%d", secs)
	}
}

type stubDispatcher struct {
	mu          sync.Mutex
	calls       int
	err         error
	lastTitle   string
	lastBody    string
	hadDeadline bool
}

func (d *stubDispatcher) Deliver(ctx context.Context, title, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.lastTitle = title
	d.lastBody = body
	_, d.hadDeadline = ctx.Deadline()
	return d.err
}

func (d *stubDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func TestEveryMovingKindEndsEpisode(t *testing.T) {
	for _, kind := range []domain.ActivityKind{domain.KindWalking, domain.KindRunning, domain.KindCycling, domain.KindAutomotive} {
		t.Run(kind.String(), func(t *testing.T) {
			tr := newTestTracker(t, &stubDispatcher{})
			tr.OnActivitySample(sample(0, domain.KindStationary))
			tr.Tick(context.Background(), at(600))

			tr.OnActivitySample(sample(601, kind))
			st := tr.Status()
			require.False(t, st.Sedentary)
			require.Zero(t, st.ElapsedSedentarySeconds)
		})
	}
}
