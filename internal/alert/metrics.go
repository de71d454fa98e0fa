package alert

import "github.com/prometheus/client_golang/prometheus"

var deliveryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sedentary_monitor",
	Subsystem: "alert",
	Name:      "deliveries_total",
	Help:      "Alert delivery attempts grouped by sink and result.",
}, []string{"sink", "result"})

func init() {
	prometheus.MustRegister(deliveryCounter)
}

func recordDelivery(sink string, err error) {
	result := "delivered"
	if err != nil {
		result = "failed"
	}
	deliveryCounter.WithLabelValues(sink, result).Inc()
}
