package steps

import "github.com/prometheus/client_golang/prometheus"

var (
	unavailableCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sedentary_monitor",
		Subsystem: "steps",
		Name:      "unavailable_queries_total",
		Help:      "Step window queries answered with the zero fallback.",
	})

	windowStepsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sedentary_monitor",
		Subsystem: "steps",
		Name:      "window_total",
		Help:      "Step total of the most recent refresh per window.",
	}, []string{"window"})

	windowUnavailableGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sedentary_monitor",
		Subsystem: "steps",
		Name:      "window_unavailable",
		Help:      "1 when the most recent refresh of the window fell back to zero.",
	}, []string{"window"})
)

func init() {
	prometheus.MustRegister(unavailableCounter, windowStepsGauge, windowUnavailableGauge)
}
