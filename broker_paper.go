// FILE: broker_paper.go
// Package main – In-memory paper broker (no external calls).
//
// This broker simulates execution for dry runs: every market order fills
// immediately at the seeded price, and holdings accumulate in memory so the
// liquidation pass has something to enumerate on repeated cycles within one
// process.
//
// Seeding (env):
//   • PAPER_EQUITY         – net liquidation value (default 1000)
//   • PAPER_PRICES         – per-symbol prices, e.g. "AAPL:250,SHOP:90"
//   • PAPER_DEFAULT_PRICE  – price for symbols not listed (default 100)

package main

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// PaperBroker keeps seeded prices and simulated holdings.
type PaperBroker struct {
	mu        sync.Mutex
	prices    map[string]float64
	defPrice  float64
	equity    float64
	holdings  map[string]BrokerPosition
	nextConID int64
}

func NewPaperBroker() *PaperBroker {
	return &PaperBroker{
		prices:    parsePaperPrices(getEnv("PAPER_PRICES", "")),
		defPrice:  getEnvFloat("PAPER_DEFAULT_PRICE", 100),
		equity:    getEnvFloat("PAPER_EQUITY", 1000),
		holdings:  map[string]BrokerPosition{},
		nextConID: 1,
	}
}

func (p *PaperBroker) Name() string { return "paper" }

func (p *PaperBroker) Connect(ctx context.Context) error    { return nil }
func (p *PaperBroker) Disconnect(ctx context.Context) error { return nil }

func (p *PaperBroker) Positions(ctx context.Context) ([]BrokerPosition, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]BrokerPosition, 0, len(p.holdings))
	for _, h := range p.holdings {
		out = append(out, h)
	}
	return out, nil
}

func (p *PaperBroker) NetLiquidation(ctx context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.equity, nil
}

func (p *PaperBroker) QualifyAndPrice(ctx context.Context, symbol string) (Contract, float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := Contract{Symbol: strings.ToUpper(strings.TrimSpace(symbol)), Venue: "SMART", Currency: "USD", ConID: p.nextConID}
	p.nextConID++
	return c, p.priceLocked(c.Symbol), nil
}

// PlaceMarketOrder fills immediately at the seeded price and updates the
// simulated holdings.
func (p *PaperBroker) PlaceMarketOrder(ctx context.Context, c Contract, side OrderSide, quantity int64) (OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	price := p.priceLocked(c.Symbol)
	delta := quantity
	if side == SideSell {
		delta = -quantity
	}
	h := p.holdings[c.Symbol]
	h.Contract = c
	h.Quantity += delta
	if h.Quantity == 0 {
		delete(p.holdings, c.Symbol)
	} else {
		p.holdings[c.Symbol] = h
	}

	return OrderResult{
		OrderID:      uuid.New().String(),
		Status:       StatusFilled,
		AvgFillPrice: price,
	}, nil
}

func (p *PaperBroker) priceLocked(symbol string) float64 {
	if v, ok := p.prices[symbol]; ok {
		return v
	}
	return p.defPrice
}

// parsePaperPrices parses "SYM:price,SYM:price" pairs; bad pairs are skipped.
func parsePaperPrices(s string) map[string]float64 {
	out := map[string]float64{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		i := strings.Index(pair, ":")
		if i <= 0 {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(pair[:i]))
		v, err := strconv.ParseFloat(strings.TrimSpace(pair[i+1:]), 64)
		if err != nil || v <= 0 {
			continue
		}
		out[sym] = v
	}
	return out
}
