package room

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "turn_rooms_active",
		Help: "Timer rooms currently open",
	})

	metricTickers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "turn_tickers_active",
		Help: "Rooms whose one-second tick task is running",
	})

	metricTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "turn_ticks_total",
		Help: "Ticks delivered to controllers",
	})

	metricExpiries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turn_expiries_total",
		Help: "Speaker slots that ran out",
	}, []string{"who"})

	metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turn_interrupt_requests_total",
		Help: "Interrupt requests by outcome: opened, rejected, allowed, denied or cleared",
	}, []string{"outcome"})

	metricActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turn_actions_total",
		Help: "Screen actions by name and whether they changed state",
	}, []string{"action", "applied"})
)
