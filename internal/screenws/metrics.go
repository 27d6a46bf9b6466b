package screenws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gaugeScreens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "screen_connections_active",
		Help: "Screens currently connected",
	})

	metricMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screen_messages_total",
		Help: "Screen websocket messages by direction and type",
	}, []string{"direction", "type"})

	metricDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screen_messages_dropped_total",
		Help: "Outbound screen messages dropped because the send queue was full",
	})
)
