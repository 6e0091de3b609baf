package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "saferoute"

var (
	// IncidentsCreated считает созданные инциденты по категориям
	IncidentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "incidents_created_total",
		Help:      "Total incidents reported, by category",
	}, []string{"category"})

	// VotesTotal считает переходы автомата голосования, label transition = "from->to"
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_total",
		Help:      "Total applied vote transitions",
	}, []string{"transition"})

	SweeperExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sweeper",
		Name:      "expired_total",
		Help:      "Incidents moved to resolved after their TTL lapsed",
	})

	SweeperErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sweeper",
		Name:      "errors_total",
		Help:      "Sweep cycles that failed and were deferred to the next interval",
	})

	AlertsTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_triggered_total",
		Help:      "SOS alerts persisted",
	})

	// AlertRecipients - сколько подключений получило один SOS
	AlertRecipients = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "alert_recipients",
		Help:      "Connections an SOS alert was delivered to",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	PresenceConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "presence_connections",
		Help:      "Authenticated realtime connections currently registered",
	})
)
