// Package metrics defines Prometheus instrumentation for hedgesim.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BacktestRunsTotal counts completed backtest runs by status.
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hedgesim",
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by status",
	}, []string{"status"})

	// BacktestDaysTotal counts simulated days by outcome (traded or skipped).
	BacktestDaysTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hedgesim",
		Name:      "backtest_days_total",
		Help:      "Total number of simulated business days by outcome",
	}, []string{"outcome"})

	// DataFetchesTotal counts market data fetches by kind and status.
	DataFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hedgesim",
		Name:      "data_fetches_total",
		Help:      "Total number of market data fetches by kind and status",
	}, []string{"kind", "status"})

	// CacheHitsTotal counts market data cache hits and misses.
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hedgesim",
		Name:      "data_cache_requests_total",
		Help:      "Market data cache lookups by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		BacktestRunsTotal,
		BacktestDaysTotal,
		DataFetchesTotal,
		CacheHitsTotal,
	)
}

// RecordBacktestRun records a backtest run event.
// status should be one of: "success", "failure"
func RecordBacktestRun(status string) {
	BacktestRunsTotal.WithLabelValues(status).Inc()
}

// RecordBacktestDay records a simulated day outcome.
// outcome should be one of: "traded", "skipped"
func RecordBacktestDay(outcome string) {
	BacktestDaysTotal.WithLabelValues(outcome).Inc()
}

// RecordDataFetch records a market data fetch.
func RecordDataFetch(kind, status string) {
	DataFetchesTotal.WithLabelValues(kind, status).Inc()
}

// RecordCacheLookup records a cache lookup result ("hit" or "miss").
func RecordCacheLookup(result string) {
	CacheHitsTotal.WithLabelValues(result).Inc()
}
