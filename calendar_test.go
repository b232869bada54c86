package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketWindowLookup(t *testing.T) {
	w := marketWindow("LSE")
	assert.Equal(t, HourMinute{8, 0}, w.Open)
	assert.Equal(t, HourMinute{16, 25}, w.Close)
	assert.Equal(t, "Europe/London", w.TZ)

	// Case and whitespace tolerated.
	assert.Equal(t, marketTimes["TSE"], marketWindow(" tse "))
}

func TestMarketWindowDefaultsToNYSE(t *testing.T) {
	w := marketWindow("XETRA")
	assert.Equal(t, marketTimes["NYSE"], w)

	w = marketWindow("")
	assert.Equal(t, marketTimes["NYSE"], w)
}

func TestCloseAtUsesExchangeLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	got := closeAt(now, "NYSE")
	assert.True(t, got.Equal(time.Date(2026, 8, 28, 15, 55, 0, 0, ny)))

	got = closeAt(now, "LSE")
	assert.True(t, got.Equal(time.Date(2026, 8, 28, 16, 25, 0, 0, london)))
}

func TestCloseAtAnchorsDayInExchangeLocation(t *testing.T) {
	taipei, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)

	// 23:00 UTC is already the next morning in Taipei, so TSE's close is the
	// 29th there, not the 28th.
	now := time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC)
	got := closeAt(now, "TSE")
	assert.True(t, got.Equal(time.Date(2026, 8, 29, 13, 25, 0, 0, taipei)))
}
