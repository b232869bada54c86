// FILE: trends.go
// Package main – Client for the trending-ticker data source.
//
// The trend source ranks stocks by discussion activity and serves them as a
// JSON document with a `results` array. One fetch attempt is a single GET:
//   • transport error            → attempt failed
//   • non-2xx status             → attempt failed (body captured in the error)
//   • zero parseable tickers     → attempt failed
// Only the first MAX_TICKERS entries are used. FetchTrendingWithRetry wraps
// an attempt in the shared bounded-retry combinator; exhaustion aborts the
// run, since every downstream step needs this list.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TrendingTicker is one entry of the trend source's ranking.
type TrendingTicker struct {
	Symbol   string
	Exchange string
}

// TrendClient fetches the day's trending tickers.
type TrendClient struct {
	url string
	hc  *http.Client
	max int
}

func NewTrendClient(url string, maxTickers int) *TrendClient {
	if maxTickers <= 0 {
		maxTickers = 10
	}
	return &TrendClient{
		url: strings.TrimSpace(url),
		hc:  &http.Client{Timeout: 15 * time.Second},
		max: maxTickers,
	}
}

// FetchTrending performs one attempt against the trend source.
func (tc *TrendClient) FetchTrending(ctx context.Context) ([]TrendingTicker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tc.url, nil)
	if err != nil {
		return nil, fmt.Errorf("newrequest trends: %w (url=%s)", err, tc.url)
	}
	req.Header.Set("User-Agent", "apetrader/trends")

	res, err := tc.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("trends %d: %s", res.StatusCode, string(b))
	}

	var out struct {
		Results []struct {
			Ticker   string `json:"ticker"`
			Exchange string `json:"exchange"`
		} `json:"results"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}

	tickers := make([]TrendingTicker, 0, tc.max)
	for _, r := range out.Results {
		if len(tickers) == tc.max {
			break
		}
		sym := strings.TrimSpace(r.Ticker)
		if sym == "" {
			continue
		}
		tickers = append(tickers, TrendingTicker{Symbol: sym, Exchange: strings.TrimSpace(r.Exchange)})
	}
	if len(tickers) == 0 {
		return nil, errors.New("no tickers received from trend source")
	}
	return tickers, nil
}

// FetchTrendingWithRetry retries FetchTrending with the shared policy and
// terminal-fails with ErrTrendFetchExhausted.
func (tc *TrendClient) FetchTrendingWithRetry(ctx context.Context, attempts int, delay time.Duration) ([]TrendingTicker, error) {
	var tickers []TrendingTicker
	err := withRetries(ctx, "trend_fetch", attempts, delay, ErrTrendFetchExhausted, nil,
		func(ctx context.Context) error {
			ts, err := tc.FetchTrending(ctx)
			if err != nil {
				return err
			}
			tickers = ts
			return nil
		})
	if err != nil {
		return nil, err
	}
	return tickers, nil
}
