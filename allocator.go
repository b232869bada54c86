// FILE: allocator.go
// Package main – Capital allocation math for the buy phase.
//
// Investable capital is equity net of the reserve fund, haircut to leave a
// cash buffer, then split evenly across the selected tickers. Quantities
// floor to whole shares; a ticker whose budget cannot buy one share is
// skipped by the engine (not an error).

package main

import "errors"

// investableCapital returns the tradable capital for the run. The result is
// deliberately not clamped: zero or negative equity degrades every
// allocation to zero-size orders downstream.
func investableCapital(netLiquidation, reserveFund, investablePct float64) float64 {
	return (netLiquidation - reserveFund) * investablePct
}

// allocate splits capital evenly across tickerCount tickers. The trend
// client never returns an empty list, so a zero count is a broken invariant
// and fails fast rather than dividing by zero.
func allocate(capital float64, tickerCount int) (float64, error) {
	if tickerCount <= 0 {
		return 0, errors.New("allocate: no tickers to allocate across")
	}
	return capital / float64(tickerCount), nil
}

// shareQuantity floors a per-ticker budget to whole shares at price. An
// unusable price or a non-positive budget yields 0.
func shareQuantity(budget, price float64) int64 {
	if price <= 0 || budget <= 0 {
		return 0
	}
	return int64(budget / price)
}
