// FILE: engine.go
// Package main – The daily trading cycle orchestrator.
//
// Run() walks one cycle, strictly forward, no branching back:
//   connect → liquidate prior holdings → fetch trending tickers → allocate
//   capital → buy → hold to each instrument's exchange close → sell →
//   accrue reserve → disconnect.
//
// What's here:
//   • OpenPosition: a bought lot carrying its own buy reference price
//   • Engine: holds config, broker, trend client, reserve ledger, and a
//     now() indirection so tests can drive the clock
//
// Concurrency design:
//   - The cycle is sequential up to the close wait. Each open position then
//     gets its own waiter goroutine polling until its exchange's close, so
//     an early-closing exchange (TSE) is never held behind a later-closing
//     one (NYSE) that happened to be bought first.
//   - Profit accumulation across waiters is mutex-guarded.
//
// Safety:
//   - Startup failures (exhausted retries) abort before any capital moves.
//   - Order anomalies after capital is committed are warnings: the cycle
//     always reaches the sell attempt for every open position, cancelled
//     context included.

package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// OpenPosition is a lot bought this cycle, held until its exchange closes.
// RefPrice is this position's own buy-side reference: the buy fill price
// when the venue reported one, otherwise the snapshot price the quantity
// was computed from.
type OpenPosition struct {
	Contract Contract
	Quantity int64
	Exchange string
	RefPrice float64
}

// Engine drives one trading cycle against a broker session.
type Engine struct {
	cfg    Config
	broker Broker
	trends *TrendClient
	ledger *ReserveLedger
	now    func() time.Time
}

func NewEngine(cfg Config, broker Broker, trends *TrendClient, ledger *ReserveLedger) *Engine {
	return &Engine{cfg: cfg, broker: broker, trends: trends, ledger: ledger, now: time.Now}
}

// Run executes one full cycle and returns only startup errors; anything
// after the buy phase is logged and absorbed so every bought position gets
// its sell attempt.
func (e *Engine) Run(ctx context.Context) error {
	if err := connectWithRetry(ctx, e.broker, e.cfg.MaxRetries, e.cfg.RetryDelay()); err != nil {
		return err
	}
	log.Printf("[ENGINE] connected to %s", e.broker.Name())
	defer func() {
		if err := e.broker.Disconnect(context.Background()); err != nil {
			log.Printf("[ENGINE] disconnect: %v", err)
		}
	}()

	if err := e.liquidateAll(ctx); err != nil {
		return err
	}

	tickers, err := e.trends.FetchTrendingWithRetry(ctx, e.cfg.MaxRetries, e.cfg.RetryDelay())
	if err != nil {
		return err
	}
	mtxTickers.Set(float64(len(tickers)))

	// Funds are read once, here, before any buy. The sell phase reuses the
	// per-position reference prices and never re-reads the account.
	netLiq, err := e.broker.NetLiquidation(ctx)
	if err != nil {
		return fmt.Errorf("account funds: %w", err)
	}
	mtxEquity.Set(netLiq)
	capital := investableCapital(netLiq, e.ledger.Fund(), e.cfg.InvestablePct)
	perTicker, err := allocate(capital, len(tickers))
	if err != nil {
		return err
	}
	log.Printf("[ALLOC] net_liquidation=%.2f reserve=%.2f investable=%.2f per_ticker=%.2f tickers=%d",
		netLiq, e.ledger.Fund(), capital, perTicker, len(tickers))

	positions := e.buyAll(ctx, tickers, perTicker)
	mtxPositions.Set(float64(len(positions)))

	totalProfit := e.sellAtClose(ctx, positions)

	dailyReserve := e.ledger.Accrue(totalProfit)
	SetReserveMetrics(totalProfit, e.ledger.Fund())
	log.Printf("[RESERVE] daily_profit=%.2f reserve_added=%.2f total_reserve=%.2f",
		totalProfit, dailyReserve, e.ledger.Fund())

	log.Printf("[ENGINE] all positions sold, trading cycle complete")
	return nil
}

// liquidateAll submits a closing market order for the full quantity of every
// reported holding. Fills are neither awaited nor verified; the cycle
// proceeds regardless.
func (e *Engine) liquidateAll(ctx context.Context) error {
	held, err := e.broker.Positions(ctx)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	for _, p := range held {
		if p.Quantity == 0 {
			continue
		}
		side, qty := SideSell, p.Quantity
		if qty < 0 { // short holdings close by buying back
			side, qty = SideBuy, -qty
		}
		if _, err := e.broker.PlaceMarketOrder(ctx, p.Contract, side, qty); err != nil {
			log.Printf("[LIQUIDATE] %s: %v", p.Contract.Symbol, err)
		}
	}
	log.Printf("[LIQUIDATE] closed all open positions")
	return nil
}

// buyAll prices each ticker and buys what the per-ticker budget affords.
// Tickers that price to a zero quantity are skipped and never positioned.
func (e *Engine) buyAll(ctx context.Context, tickers []TrendingTicker, perTicker float64) []OpenPosition {
	positions := make([]OpenPosition, 0, len(tickers))
	for _, tk := range tickers {
		contract, price, err := e.broker.QualifyAndPrice(ctx, tk.Symbol)
		if err != nil {
			log.Printf("[BUY] %s: qualify/price failed: %v", tk.Symbol, err)
			continue
		}
		qty := shareQuantity(perTicker, price)
		if qty == 0 {
			continue
		}
		res, err := e.broker.PlaceMarketOrder(ctx, contract, SideBuy, qty)
		if err != nil {
			log.Printf("[BUY] %s: order failed: %v", tk.Symbol, err)
			continue
		}
		IncOrderMetric(SideBuy, res.Outcome())
		if res.Outcome() != OutcomeAccepted {
			log.Printf("[BUY] order for %s not confirmed: status=%q", contract.Symbol, res.Status)
		}
		ref := res.AvgFillPrice
		if ref <= 0 {
			ref = price
		}
		positions = append(positions, OpenPosition{
			Contract: contract,
			Quantity: qty,
			Exchange: tk.Exchange,
			RefPrice: ref,
		})
		log.Printf("[BUY] %s qty=%d ref=%.2f exchange=%s", contract.Symbol, qty, ref, tk.Exchange)
	}
	return positions
}

// sellAtClose holds every position to its own exchange close, then closes it
// with a market sell. Waiters run independently and finish in any order.
// Only sells the venue reports Filled contribute to profit; an unconfirmed
// sell still counts the position as closed.
func (e *Engine) sellAtClose(ctx context.Context, positions []OpenPosition) float64 {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total float64
	)
	for _, pos := range positions {
		wg.Add(1)
		go func(pos OpenPosition) {
			defer wg.Done()
			e.waitUntilClose(ctx, pos.Exchange)

			res, err := e.broker.PlaceMarketOrder(ctx, pos.Contract, SideSell, pos.Quantity)
			if err != nil {
				log.Printf("[SELL] %s: order failed: %v", pos.Contract.Symbol, err)
				return
			}
			IncOrderMetric(SideSell, res.Outcome())
			if res.Outcome() != OutcomeAccepted {
				log.Printf("[SELL] order for %s not confirmed: status=%q", pos.Contract.Symbol, res.Status)
			}
			if res.Status == StatusFilled {
				pnl := (res.AvgFillPrice - pos.RefPrice) * float64(pos.Quantity)
				mu.Lock()
				total += pnl
				mu.Unlock()
				log.Printf("[SELL] %s qty=%d fill=%.2f pnl=%.2f", pos.Contract.Symbol, pos.Quantity, res.AvgFillPrice, pnl)
			} else {
				log.Printf("[SELL] %s closed without confirmed fill (status=%q)", pos.Contract.Symbol, res.Status)
			}
		}(pos)
	}
	wg.Wait()
	return total
}

// waitUntilClose polls until the exchange's close instant. A cancelled
// context ends the wait early; the caller still places its sell so no
// position is left unmatched.
func (e *Engine) waitUntilClose(ctx context.Context, exchange string) {
	target := closeAt(e.now(), exchange)
	for e.now().Before(target) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(e.cfg.ClosePoll()):
		}
	}
}
