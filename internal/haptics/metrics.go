package haptics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPulses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "haptic_pulses_delivered_total",
		Help: "Haptic pulses handed to the sink by kind",
	}, []string{"kind"})

	metricDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "haptic_pulses_dropped_total",
		Help: "Haptic pulses dropped because the queue was full or closed",
	})
)
