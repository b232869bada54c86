// FILE: retry.go
// Package main – Bounded fixed-delay retry shared by the startup dependencies.
//
// Both external inputs of a run (the trending-ticker list and the broker
// session) are mandatory: either one failing to materialize after the
// configured attempts aborts the run before any capital is committed. The
// two sites share one combinator so the policy cannot drift: a fixed number
// of attempts, a fixed delay between them, one warn line per failure, and a
// distinct terminal error per site on exhaustion.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Terminal errors raised when a retry site exhausts its attempts.
var (
	ErrTrendFetchExhausted    = errors.New("trend fetch retries exhausted")
	ErrBrokerConnectExhausted = errors.New("broker connect retries exhausted")
)

// withRetries runs fn up to attempts times, sleeping delay between failed
// attempts. A nil retryable predicate treats every error as retryable; a
// non-retryable error is returned as-is without further attempts. On
// exhaustion the site's terminal error is returned wrapping the last failure.
func withRetries(ctx context.Context, site string, attempts int, delay time.Duration,
	terminal error, retryable func(error) bool, fn func(context.Context) error) error {

	if attempts <= 0 {
		attempts = 1
	}
	var last error
	for i := 1; i <= attempts; i++ {
		last = fn(ctx)
		if last == nil {
			return nil
		}
		if retryable != nil && !retryable(last) {
			return last
		}
		log.Printf("[RETRY] %s attempt %d/%d failed: %v (retrying in %v)", site, i, attempts, last, delay)
		IncRetryAttemptMetric(site)
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%w: %v", terminal, last)
}
