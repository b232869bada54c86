// FILE: broker.go
// Package main – Broker abstractions shared by all execution backends.
//
// This file defines the minimal interface the trading cycle needs to talk to
// a market-execution backend (paper or real):
//   • Broker interface: session lifecycle, holdings, account equity,
//     contract qualification + pricing, market order placement
//   • Common types: OrderSide, Contract, BrokerPosition, OrderResult
//
// Two concrete implementations live in separate files:
//   • broker_paper.go    – in-memory paper broker (no external calls)
//   • broker_gateway.go  – HTTP client for the trading-workstation sidecar
//
// Order placement is fire-and-forget with a short settle poll, so an
// OrderResult maps its raw venue status onto three outcomes: accepted (the
// venue took the order), rejected (it refused), unknown (status never
// settled). Callers decide policy per outcome.

package main

import (
	"context"
	"time"
)

// OrderSide is the side of a trade.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// Venue statuses the cycle keys decisions off.
const (
	StatusFilled    = "Filled"
	StatusSubmitted = "Submitted"
)

// OrderOutcome folds venue statuses into the three cases callers act on.
type OrderOutcome string

const (
	OutcomeAccepted OrderOutcome = "accepted"
	OutcomeRejected OrderOutcome = "rejected"
	OutcomeUnknown  OrderOutcome = "unknown"
)

// Contract is a qualified, tradable instrument reference.
type Contract struct {
	Symbol   string
	Venue    string // routing venue, e.g. SMART
	Currency string
	ConID    int64 // venue contract id, set by qualification
}

// BrokerPosition is a holding reported by the venue.
type BrokerPosition struct {
	Contract Contract
	Quantity int64 // signed; negative = short
	Exchange string
}

// OrderResult is a normalized view of a submitted market order after its
// settle window.
type OrderResult struct {
	OrderID      string
	Status       string
	AvgFillPrice float64
}

// Outcome maps the raw status onto the three-case result model.
func (r OrderResult) Outcome() OrderOutcome {
	switch r.Status {
	case StatusFilled, StatusSubmitted, "PreSubmitted":
		return OutcomeAccepted
	case "Cancelled", "ApiCancelled", "Rejected", "Inactive":
		return OutcomeRejected
	default:
		return OutcomeUnknown
	}
}

// Broker is the minimal surface the cycle needs to operate.
type Broker interface {
	Name() string
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Positions(ctx context.Context) ([]BrokerPosition, error)
	NetLiquidation(ctx context.Context) (float64, error)
	QualifyAndPrice(ctx context.Context, symbol string) (Contract, float64, error)
	PlaceMarketOrder(ctx context.Context, c Contract, side OrderSide, quantity int64) (OrderResult, error)
}

// connectWithRetry establishes the broker session under the shared retry
// policy and terminal-fails with ErrBrokerConnectExhausted.
func connectWithRetry(ctx context.Context, b Broker, attempts int, delay time.Duration) error {
	return withRetries(ctx, "broker_connect", attempts, delay, ErrBrokerConnectExhausted, nil, b.Connect)
}

// settle pauses for d to let asynchronous venue-side state catch up,
// returning early on context cancellation.
func settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
