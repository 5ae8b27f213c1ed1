// Package metrics exposes Prometheus counters for the scoring pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	received = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_events_received_total",
		Help: "Feed messages received.",
	})

	scored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_events_scored_total",
		Help: "Transactions that produced a ledger update.",
	}, []string{"contract", "function"})

	pointsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_points_awarded_total",
		Help: "Points awarded, by contract and function.",
	}, []string{"contract", "function"})

	skipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_events_skipped_total",
		Help: "Messages discarded before scoring, by reason.",
	}, []string{"reason"})

	reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_feed_reconnects_total",
		Help: "Feed connection attempts after a failure or disconnect.",
	})

	refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_membership_refreshes_total",
		Help: "Membership refresh attempts, by outcome.",
	}, []string{"outcome"})

	holders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_membership_holders",
		Help: "Holders in the last membership snapshot.",
	})
)

// RecordReceived counts an inbound feed message.
func RecordReceived() {
	received.Inc()
}

// RecordScored counts a scored transaction and the points it awarded.
func RecordScored(contract, function string, points int64) {
	scored.WithLabelValues(contract, function).Inc()
	pointsAwarded.WithLabelValues(contract, function).Add(float64(points))
}

// RecordSkipped counts a message discarded before scoring.
func RecordSkipped(reason string) {
	skipped.WithLabelValues(reason).Inc()
}

// RecordReconnect counts a feed reconnect attempt.
func RecordReconnect() {
	reconnects.Inc()
}

// RecordMembershipRefresh counts a refresh attempt and tracks the holder
// gauge on success.
func RecordMembershipRefresh(ok bool, size int) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	refreshes.WithLabelValues(outcome).Inc()
	if ok {
		holders.Set(float64(size))
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
