package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatewayTestConfig(url string) Config {
	cfg := loadConfigFromEnv()
	cfg.GatewayURL = url
	cfg.IBHost = "127.0.0.1"
	cfg.IBPort = 7497
	cfg.ClientID = 1
	cfg.SnapshotSettleMs = 0
	cfg.OrderSettleMs = 0
	return cfg
}

func TestGatewayConnectHoldsSession(t *testing.T) {
	var sawClientID float64
	var sessionHeader string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /connect", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sawClientID, _ = body["client_id"].(float64)
		fmt.Fprint(w, `{"session_id":"sess-42"}`)
	})
	mux.HandleFunc("GET /account/summary", func(w http.ResponseWriter, r *http.Request) {
		sessionHeader = r.Header.Get("X-Session-ID")
		fmt.Fprint(w, `{"net_liquidation":"10526.32","currency":"USD"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gb := NewGatewayBroker(gatewayTestConfig(srv.URL))
	require.NoError(t, gb.Connect(context.Background()))
	assert.Equal(t, float64(1), sawClientID)

	netLiq, err := gb.NetLiquidation(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10526.32, netLiq, 1e-9)
	assert.Equal(t, "sess-42", sessionHeader, "session token rides every request")
}

func TestGatewayConnectRetriesThenExhausts(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "workstation not up", http.StatusBadGateway)
	}))
	defer srv.Close()

	gb := NewGatewayBroker(gatewayTestConfig(srv.URL))
	err := connectWithRetry(context.Background(), gb, 3, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBrokerConnectExhausted))
	assert.Equal(t, int64(3), calls.Load())
}

func TestGatewayPositionsParse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /positions", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"symbol":"AAPL","con_id":101,"exchange":"NASDAQ","currency":"USD","position":"20"},
			{"symbol":"SHOP","con_id":102,"exchange":"TSX","currency":"","position":"-5"}
		]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gb := NewGatewayBroker(gatewayTestConfig(srv.URL))
	got, err := gb.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(20), got[0].Quantity)
	assert.Equal(t, "NASDAQ", got[0].Exchange)
	assert.Equal(t, int64(-5), got[1].Quantity, "short positions keep their sign")
	assert.Equal(t, "USD", got[1].Contract.Currency, "missing currency defaults to USD")
}

func TestGatewayQualifyAndPricePrefersLast(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /contract/qualify", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"con_id":101}`)
	})
	mux.HandleFunc("GET /snapshot/101", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"last":"251.40","prev_close":"248.00"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gb := NewGatewayBroker(gatewayTestConfig(srv.URL))
	c, price, err := gb.QualifyAndPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(101), c.ConID)
	assert.Equal(t, "SMART", c.Venue)
	assert.InDelta(t, 251.40, price, 1e-9)
}

func TestGatewayQualifyAndPriceFallsBackToPrevClose(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /contract/qualify", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"con_id":102}`)
	})
	mux.HandleFunc("GET /snapshot/102", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"last":"","prev_close":"90.00"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gb := NewGatewayBroker(gatewayTestConfig(srv.URL))
	_, price, err := gb.QualifyAndPrice(context.Background(), "SHOP")
	require.NoError(t, err)
	assert.InDelta(t, 90.0, price, 1e-9, "no last trade yet, previous close wins")
}

func TestGatewayPlaceMarketOrderPicksUpFill(t *testing.T) {
	var sawOrder map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /order/market", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sawOrder))
		fmt.Fprint(w, `{"order_id":"o-7","status":"Submitted","avg_fill_price":""}`)
	})
	mux.HandleFunc("GET /order/o-7", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"order_id":"o-7","status":"Filled","avg_fill_price":"250.50"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gb := NewGatewayBroker(gatewayTestConfig(srv.URL))
	res, err := gb.PlaceMarketOrder(context.Background(), Contract{Symbol: "AAPL", ConID: 101}, SideBuy, 20)
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, res.Status)
	assert.InDelta(t, 250.50, res.AvgFillPrice, 1e-9)
	assert.Equal(t, OutcomeAccepted, res.Outcome())

	assert.Equal(t, "BUY", sawOrder["side"])
	assert.Equal(t, float64(20), sawOrder["quantity"])
	assert.NotEmpty(t, sawOrder["client_order_id"], "dedupe-safe client order id is always sent")
}

func TestOrderOutcomeMapping(t *testing.T) {
	assert.Equal(t, OutcomeAccepted, OrderResult{Status: StatusFilled}.Outcome())
	assert.Equal(t, OutcomeAccepted, OrderResult{Status: StatusSubmitted}.Outcome())
	assert.Equal(t, OutcomeRejected, OrderResult{Status: "Rejected"}.Outcome())
	assert.Equal(t, OutcomeRejected, OrderResult{Status: "Cancelled"}.Outcome())
	assert.Equal(t, OutcomeUnknown, OrderResult{Status: ""}.Outcome())
	assert.Equal(t, OutcomeUnknown, OrderResult{Status: "PendingSubmit"}.Outcome())
}
