// FILE: main.go
// Package main – Program entrypoint and HTTP/metrics server.
//
// Boot sequence:
//   1) loadBotEnv()            – read .env (no shell exports required)
//   2) cfg := loadConfigFromEnv() – build runtime Config
//   3) setupLogging()          – mirror log stream to the trade log file
//   4) wire broker/trends/reserve/engine
//   5) start Prometheus /healthz server on cfg.Port
//   6) run exactly one trading cycle, then exit
//
// Flags:
//   -dry-run   Force the in-memory paper broker (no orders leave the process)
//
// Example:
//   go run . -dry-run
//
// Notes:
//   - The gateway sidecar must be running for live mode (GATEWAY_URL in .env).
//   - Exit status is 0 on a completed cycle and non-zero when either startup
//     dependency (trend list, broker session) exhausts its retries.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// ---- Flags ----
	var dryRun bool
	flag.BoolVar(&dryRun, "dry-run", false, "Force the paper broker")
	flag.Parse()

	// ---- Environment & Config ----
	loadBotEnv()
	cfg := loadConfigFromEnv()
	if dryRun {
		cfg.DryRun = true
	}
	setupLogging(cfg.TradeLogFile)

	// ---- Broker wiring ----
	var broker Broker
	if cfg.DryRun {
		broker = NewPaperBroker()
	} else {
		broker = NewGatewayBroker(cfg)
	}

	trends := NewTrendClient(cfg.TrendURL, cfg.MaxTickers)
	ledger := NewReserveLedger(cfg.ReservePct, cfg.StateFile)
	engine := NewEngine(cfg, broker, trends, ledger)

	// ---- HTTP metrics/health ----
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		log.Printf("serving metrics on :%d/metrics", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	// ---- One trading cycle ----
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("starting %s cycle trend_url=%s dry_run=%v retries=%d delay=%ds",
		broker.Name(), cfg.TrendURL, cfg.DryRun, cfg.MaxRetries, cfg.RetryDelaySec)

	runErr := engine.Run(ctx)

	// ---- Graceful shutdown for HTTP server ----
	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)

	if runErr != nil {
		log.Fatalf("trading cycle aborted: %v", runErr)
	}
}
