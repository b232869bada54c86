// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Exposes the primary metrics the bot updates during a cycle:
//   • bot_orders_total{side,outcome}      – Orders placed (outcome: accepted|rejected|unknown)
//   • bot_retry_attempts_total{site}      – Failed attempts per retry site (trend_fetch|broker_connect)
//   • bot_net_liquidation_usd             – Equity snapshot read at allocation (gauge)
//   • bot_trending_tickers                – Tickers selected this run (gauge)
//   • bot_open_positions                  – Positions opened in the buy phase (gauge)
//   • bot_daily_profit_usd                – Realized profit of the run (gauge)
//   • bot_reserve_fund_usd                – Cumulative reserve fund (gauge)
//
// These are registered in init() and served by the HTTP handler started in
// main.go at /metrics (Prometheus text exposition format).

package main

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Orders placed, by side and settle outcome",
		},
		[]string{"side", "outcome"},
	)

	mtxRetryAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_retry_attempts_total",
			Help: "Failed attempts at the bounded-retry sites",
		},
		[]string{"site"},
	)

	mtxEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_net_liquidation_usd",
			Help: "Net liquidation value at allocation time",
		},
	)

	mtxTickers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_trending_tickers",
			Help: "Trending tickers selected for the run",
		},
	)

	mtxPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_open_positions",
			Help: "Positions opened during the buy phase",
		},
	)

	mtxProfit = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_daily_profit_usd",
			Help: "Realized profit of the completed run",
		},
	)

	mtxReserve = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_reserve_fund_usd",
			Help: "Cumulative reserve fund (tracked, never withdrawn)",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxOrders, mtxRetryAttempts)
	prometheus.MustRegister(mtxEquity, mtxTickers, mtxPositions)
	prometheus.MustRegister(mtxProfit, mtxReserve)
}

// Helper setters (optional use by other files)
func IncOrderMetric(side OrderSide, outcome OrderOutcome) {
	mtxOrders.WithLabelValues(string(side), string(outcome)).Inc()
}

func IncRetryAttemptMetric(site string) { mtxRetryAttempts.WithLabelValues(site).Inc() }

func SetReserveMetrics(profit, fund float64) {
	mtxProfit.Set(profit)
	mtxReserve.Set(fund)
}
