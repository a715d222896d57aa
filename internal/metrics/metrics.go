// Package metrics exposes prometheus counters for the ingest and delivery
// paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TicksIngested = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tickersentry_ticks_ingested_total", Help: "Normalized ticks fed to the core"},
	)
	TicksDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tickersentry_ticks_dropped_total", Help: "Raw feed messages rejected by the normalizer"},
	)
	BreachEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tickersentry_breach_events_total", Help: "Breach events emitted by the decision engine"},
	)
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tickersentry_notifications_total", Help: "Telegram notification deliveries"},
		[]string{"result"},
	)
	FeedReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tickersentry_feed_reconnects_total", Help: "Websocket feed reconnect attempts"},
	)
)

func init() {
	prometheus.MustRegister(TicksIngested, TicksDropped, BreachEvents, NotificationsSent, FeedReconnects)
}
