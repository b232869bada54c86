// FILE: config.go
// Package main – Runtime configuration model and loader.
//
// This file defines the Config struct (all the knobs the bot uses) and a
// helper to populate it from environment variables. The .env file is read
// by loadBotEnv() (see env.go), so you can tune behavior without exports.
//
// Typical flow (see main.go):
//   loadBotEnv()
//   cfg := loadConfigFromEnv()
package main

import "time"

// Config holds all runtime knobs for the daily trading cycle.
type Config struct {
	// Trend source
	TrendURL   string // trending-ticker endpoint
	MaxTickers int    // cap on tickers taken from one response

	// Broker gateway
	GatewayURL string // HTTP sidecar fronting the trading workstation
	IBHost     string // workstation host the gateway dials
	IBPort     int    // workstation port (7497 = paper TWS)
	ClientID   int    // API client id on the workstation

	// Retry policy (shared by trend fetch and broker connect)
	MaxRetries    int
	RetryDelaySec int

	// Capital & reserve
	ReservePct    float64 // share of realized profit earmarked per day
	InvestablePct float64 // haircut applied to equity net of reserve

	// Timing
	SnapshotSettleMs int // pause after a market-data request
	OrderSettleMs    int // pause after an order submission
	ClosePollMs      int // close-time polling cadence

	// Ops
	Port         int
	DryRun       bool   // route orders to the in-memory paper broker
	StateFile    string // optional reserve snapshot path; empty = in-memory
	TradeLogFile string // append-only log mirror
}

// loadConfigFromEnv reads the process env (already hydrated by loadBotEnv())
// and returns a Config with sane defaults if keys are missing.
func loadConfigFromEnv() Config {
	return Config{
		TrendURL:   getEnv("TREND_URL", "https://apewisdom.io/api/v1.0/filter/all-stocks"),
		MaxTickers: getEnvInt("MAX_TICKERS", 10),

		GatewayURL: getEnv("GATEWAY_URL", "http://127.0.0.1:8789"),
		IBHost:     getEnv("IB_HOST", "127.0.0.1"),
		IBPort:     getEnvInt("IB_PORT", 7497),
		ClientID:   getEnvInt("IB_CLIENT_ID", 1),

		MaxRetries:    getEnvInt("MAX_RETRIES", 3),
		RetryDelaySec: getEnvInt("RETRY_DELAY_SEC", 5),

		ReservePct:    getEnvFloat("RESERVE_PCT", 0.25),
		InvestablePct: getEnvFloat("INVESTABLE_PCT", 0.95),

		SnapshotSettleMs: getEnvInt("SNAPSHOT_SETTLE_MS", 1000),
		OrderSettleMs:    getEnvInt("ORDER_SETTLE_MS", 2000),
		ClosePollMs:      getEnvInt("CLOSE_POLL_MS", 1000),

		Port:         getEnvInt("PORT", 8080),
		DryRun:       getEnvBool("DRY_RUN", true),
		StateFile:    getEnv("STATE_FILE", ""),
		TradeLogFile: getEnv("TRADE_LOG_FILE", "trade_log.txt"),
	}
}

// ---- cfg helpers (getter methods) ----

func (c Config) RetryDelay() time.Duration {
	if c.RetryDelaySec < 0 {
		return 0
	}
	return time.Duration(c.RetryDelaySec) * time.Second
}

func (c Config) SnapshotSettle() time.Duration {
	return time.Duration(c.SnapshotSettleMs) * time.Millisecond
}

func (c Config) OrderSettle() time.Duration {
	return time.Duration(c.OrderSettleMs) * time.Millisecond
}

// ClosePoll is the cadence of the close-time wait loop; clamped to stay a
// busy-wait with a real pause.
func (c Config) ClosePoll() time.Duration {
	if c.ClosePollMs <= 0 {
		return time.Second
	}
	return time.Duration(c.ClosePollMs) * time.Millisecond
}
