package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ExplorerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet_history",
		Name:      "explorer_requests_total",
		Help:      "Ledger-history API requests by action and outcome",
	}, []string{"action", "outcome"})

	ExplorerBackoffsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet_history",
		Name:      "explorer_backoffs_total",
		Help:      "Backoff delays taken after a rate-limit signal",
	}, []string{"action"})

	ChainLogQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet_history",
		Name:      "chain_log_queries_total",
		Help:      "On-chain log queries by token and outcome",
	}, []string{"token", "outcome"})

	RefreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wallet_history",
		Name:      "refresh_duration_seconds",
		Help:      "Duration of a full fetch and pipeline cycle",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	HistoryEvents = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wallet_history",
		Name:      "events",
		Help:      "Displayed events by category",
	}, []string{"category"})
)

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
