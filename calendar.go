// FILE: calendar.go
// Package main – Exchange market-window lookup.
//
// A MarketWindow is an exchange's local open/close time pair plus its
// timezone. The table covers the exchanges the trend source actually emits;
// anything unknown falls back to NYSE hours. Close instants are computed in
// the exchange's own location, so an LSE position is held to London close
// regardless of where the bot runs.

package main

import (
	"strings"
	"time"
)

type HourMinute struct {
	Hour   int
	Minute int
}

// MarketWindow is a static, read-only trading-session definition.
type MarketWindow struct {
	Open  HourMinute
	Close HourMinute
	TZ    string
}

// Close times sit a few minutes before the session end so market sells can
// still cross before the bell.
var marketTimes = map[string]MarketWindow{
	"NYSE":   {Open: HourMinute{9, 30}, Close: HourMinute{15, 55}, TZ: "America/New_York"},
	"NASDAQ": {Open: HourMinute{9, 30}, Close: HourMinute{15, 55}, TZ: "America/New_York"},
	"TSX":    {Open: HourMinute{9, 30}, Close: HourMinute{15, 55}, TZ: "America/Toronto"},
	"LSE":    {Open: HourMinute{8, 0}, Close: HourMinute{16, 25}, TZ: "Europe/London"},
	"TSE":    {Open: HourMinute{9, 0}, Close: HourMinute{13, 25}, TZ: "Asia/Taipei"}, // Taiwan Stock Exchange
}

// marketWindow returns the window for an exchange code, defaulting to NYSE
// when the exchange is not listed.
func marketWindow(exchange string) MarketWindow {
	if w, ok := marketTimes[strings.ToUpper(strings.TrimSpace(exchange))]; ok {
		return w
	}
	return marketTimes["NYSE"]
}

func (w MarketWindow) location() *time.Location {
	loc, err := time.LoadLocation(w.TZ)
	if err != nil {
		loc = time.UTC
	}
	return loc
}

// closeAt returns the exchange's close instant for the trading day containing
// now, evaluated in the exchange's location.
func closeAt(now time.Time, exchange string) time.Time {
	w := marketWindow(exchange)
	loc := w.location()
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, w.Close.Hour, w.Close.Minute, 0, 0, loc)
}
