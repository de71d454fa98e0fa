package tracker

import "github.com/prometheus/client_golang/prometheus"

var (
	alertsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sedentary_monitor",
		Subsystem: "tracker",
		Name:      "alerts_total",
		Help:      "Inactivity alerts attempted, labeled by delivery result.",
	}, []string{"result"})

	transitionsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sedentary_monitor",
		Subsystem: "tracker",
		Name:      "transitions_total",
		Help:      "State machine transitions, labeled by the entered state.",
	}, []string{"state"})

	fallbackCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sedentary_monitor",
		Subsystem: "tracker",
		Name:      "fallback_readings_total",
		Help:      "Motion readings applied through the fallback path, labeled by synthetic kind.",
	}, []string{"kind"})

	lowConfidenceCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sedentary_monitor",
		Subsystem: "tracker",
		Name:      "low_confidence_samples_total",
		Help:      "Activity samples whose kind was ignored because of low confidence.",
	})

	elapsedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sedentary_monitor",
		Subsystem: "tracker",
		Name:      "sedentary_elapsed_seconds",
		Help:      "Elapsed seconds of the current sedentary episode, zero while moving.",
	})
)

func init() {
	prometheus.MustRegister(alertsCounter, transitionsCounter, fallbackCounter, lowConfidenceCounter, elapsedGauge)
}
