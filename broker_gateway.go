// FILE: broker_gateway.go
// Package main – HTTP broker that talks to the local trading-workstation sidecar.
//
// This broker hits the gateway sidecar which fronts the Interactive Brokers
// workstation API. It implements:
//   • Connect:          POST /connect {host, port, client_id} -> session token
//   • Disconnect:       POST /disconnect
//   • Positions:        GET  /positions -> current holdings
//   • NetLiquidation:   GET  /account/summary -> "NetLiquidation" value
//   • QualifyAndPrice:  POST /contract/qualify, then GET /snapshot/{con_id};
//                       prefers last trade, falls back to previous close; a
//                       short settle pause lets the snapshot populate
//   • PlaceMarketOrder: POST /order/market with a dedupe-safe uuid client
//                       order id; after the settle pause, GET /order/{id} is
//                       micro-retried to refresh status and fill price
//
// All USD amounts arrive as strings in the gateway's normalized shapes and
// are parsed here.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GatewayBroker talks to the workstation sidecar and holds the session token
// issued by /connect. The token is written once during Connect and read-only
// afterwards, so concurrent order placement needs no lock.
type GatewayBroker struct {
	base           string
	hc             *http.Client
	host           string
	port           int
	clientID       int
	snapshotSettle time.Duration
	orderSettle    time.Duration
	session        string
}

func NewGatewayBroker(cfg Config) *GatewayBroker {
	base := strings.TrimSpace(cfg.GatewayURL)
	if i := strings.IndexAny(base, " \t#"); i >= 0 { // cut trailing comment/space
		base = strings.TrimSpace(base[:i])
	}
	if base == "" {
		base = "http://127.0.0.1:8789"
	}
	base = strings.TrimRight(base, "/")
	return &GatewayBroker{
		base:           base,
		hc:             &http.Client{Timeout: 15 * time.Second},
		host:           cfg.IBHost,
		port:           cfg.IBPort,
		clientID:       cfg.ClientID,
		snapshotSettle: cfg.SnapshotSettle(),
		orderSettle:    cfg.OrderSettle(),
	}
}

func (gb *GatewayBroker) Name() string { return "ib-gateway" }

// --- Session ---

func (gb *GatewayBroker) Connect(ctx context.Context) error {
	body := map[string]any{
		"host":      gb.host,
		"port":      gb.port,
		"client_id": gb.clientID,
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := gb.post(ctx, "/connect", body, &out); err != nil {
		return err
	}
	if strings.TrimSpace(out.SessionID) == "" {
		return fmt.Errorf("connect: gateway returned no session id")
	}
	gb.session = out.SessionID
	return nil
}

func (gb *GatewayBroker) Disconnect(ctx context.Context) error {
	if gb.session == "" {
		return nil
	}
	err := gb.post(ctx, "/disconnect", map[string]any{}, nil)
	gb.session = ""
	return err
}

// --- Holdings & account ---

func (gb *GatewayBroker) Positions(ctx context.Context) ([]BrokerPosition, error) {
	var rows []struct {
		Symbol   string `json:"symbol"`
		ConID    int64  `json:"con_id"`
		Exchange string `json:"exchange"`
		Currency string `json:"currency"`
		Position string `json:"position"`
	}
	if err := gb.get(ctx, "/positions", &rows); err != nil {
		return nil, err
	}
	out := make([]BrokerPosition, 0, len(rows))
	for _, r := range rows {
		qty, _ := strconv.ParseInt(strings.TrimSpace(r.Position), 10, 64)
		out = append(out, BrokerPosition{
			Contract: Contract{
				Symbol:   strings.TrimSpace(r.Symbol),
				Venue:    "SMART",
				Currency: firstNonEmpty(strings.TrimSpace(r.Currency), "USD"),
				ConID:    r.ConID,
			},
			Quantity: qty,
			Exchange: strings.TrimSpace(r.Exchange),
		})
	}
	return out, nil
}

func (gb *GatewayBroker) NetLiquidation(ctx context.Context) (float64, error) {
	var out struct {
		NetLiquidation string `json:"net_liquidation"`
		Currency       string `json:"currency"`
	}
	if err := gb.get(ctx, "/account/summary", &out); err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(out.NetLiquidation), 64)
	if err != nil {
		return 0, fmt.Errorf("account summary: bad net_liquidation %q", out.NetLiquidation)
	}
	return v, nil
}

// --- Qualification & pricing ---

func (gb *GatewayBroker) QualifyAndPrice(ctx context.Context, symbol string) (Contract, float64, error) {
	c := Contract{Symbol: strings.TrimSpace(symbol), Venue: "SMART", Currency: "USD"}

	var q struct {
		ConID int64 `json:"con_id"`
	}
	body := map[string]any{"symbol": c.Symbol, "venue": c.Venue, "currency": c.Currency}
	if err := gb.post(ctx, "/contract/qualify", body, &q); err != nil {
		return Contract{}, 0, fmt.Errorf("qualify %s: %w", c.Symbol, err)
	}
	c.ConID = q.ConID

	// Let the streaming snapshot populate before reading it.
	settle(ctx, gb.snapshotSettle)

	var s struct {
		Last      string `json:"last"`
		PrevClose string `json:"prev_close"`
	}
	if err := gb.get(ctx, fmt.Sprintf("/snapshot/%d", c.ConID), &s); err != nil {
		return Contract{}, 0, fmt.Errorf("snapshot %s: %w", c.Symbol, err)
	}
	last, _ := strconv.ParseFloat(strings.TrimSpace(s.Last), 64)
	if last > 0 {
		return c, last, nil
	}
	prev, _ := strconv.ParseFloat(strings.TrimSpace(s.PrevClose), 64)
	return c, prev, nil
}

// --- Orders ---

func (gb *GatewayBroker) PlaceMarketOrder(ctx context.Context, c Contract, side OrderSide, quantity int64) (OrderResult, error) {
	body := map[string]any{
		"con_id":          c.ConID,
		"symbol":          c.Symbol,
		"side":            strings.ToUpper(string(side)),
		"quantity":        quantity,
		"client_order_id": uuid.New().String(), // dedupe-safe ID for retries
	}
	var out struct {
		OrderID      string `json:"order_id"`
		Status       string `json:"status"`
		AvgFillPrice string `json:"avg_fill_price"`
	}
	if err := gb.post(ctx, "/order/market", body, &out); err != nil {
		return OrderResult{}, err
	}

	res := OrderResult{
		OrderID: firstNonEmpty(strings.TrimSpace(out.OrderID), uuid.New().String()),
		Status:  strings.TrimSpace(out.Status),
	}
	res.AvgFillPrice, _ = strconv.ParseFloat(strings.TrimSpace(out.AvgFillPrice), 64)

	// Let the order status settle, then micro-retry the status endpoint to
	// pick up the fill.
	settle(ctx, gb.orderSettle)
	const attempts = 6
	const sleepDur = 250 * time.Millisecond
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			break
		}
		status, price, err := gb.tryFetchOrderStatus(ctx, res.OrderID)
		if err == nil && status != "" {
			res.Status = status
			if price > 0 {
				res.AvgFillPrice = price
			}
			if res.Outcome() != OutcomeUnknown {
				break
			}
		}
		select {
		case <-ctx.Done():
			i = attempts // exit loop on cancellation
		case <-time.After(sleepDur):
		}
	}
	return res, nil
}

// tryFetchOrderStatus calls GET /order/{order_id} and returns (status,
// avgFillPrice, err). Best-effort enrichment; callers swallow errors.
func (gb *GatewayBroker) tryFetchOrderStatus(ctx context.Context, orderID string) (string, float64, error) {
	if strings.TrimSpace(orderID) == "" {
		return "", 0, fmt.Errorf("empty order id")
	}
	var out struct {
		OrderID      string `json:"order_id"`
		Status       string `json:"status"`
		AvgFillPrice string `json:"avg_fill_price"`
	}
	if err := gb.get(ctx, "/order/"+url.PathEscape(orderID), &out); err != nil {
		return "", 0, err
	}
	price, _ := strconv.ParseFloat(strings.TrimSpace(out.AvgFillPrice), 64)
	return strings.TrimSpace(out.Status), price, nil
}

// --- HTTP plumbing ---

func (gb *GatewayBroker) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gb.base+path, nil)
	if err != nil {
		return fmt.Errorf("newrequest %s: %w", path, err)
	}
	return gb.do(req, out)
}

func (gb *GatewayBroker) post(ctx context.Context, path string, body map[string]any, out any) error {
	bs, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gb.base+path, bytes.NewReader(bs))
	if err != nil {
		return fmt.Errorf("newrequest %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return gb.do(req, out)
}

func (gb *GatewayBroker) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", "apetrader/gateway")
	if gb.session != "" {
		req.Header.Set("X-Session-ID", gb.session)
	}
	res, err := gb.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("gateway %s %d: %s", req.URL.Path, res.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// --- small helpers local to this file ---

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
