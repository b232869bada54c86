// FILE: reserve.go
// Package main – Reserve fund accounting.
//
// A fixed share of each day's realized profit is earmarked as a reserve.
// The fund is tracked, never withdrawn: it only reduces the capital the
// allocator considers investable and shows up in the end-of-run summary.
//
// By default the fund lives for the process only (every run starts at 0).
// Setting STATE_FILE makes the ledger load the prior fund at boot and write
// a JSON snapshot after each accrual, so the reserve survives restarts.

package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"
)

type reserveSnapshot struct {
	ReserveFundUSD float64 `json:"reserve_fund_usd"`
	UpdatedAtISO   string  `json:"updated_at_iso"`
}

// ReserveLedger accumulates the reserve fund across accruals.
type ReserveLedger struct {
	pct  float64
	path string // empty: in-memory only
	fund float64
}

func NewReserveLedger(pct float64, path string) *ReserveLedger {
	l := &ReserveLedger{pct: pct, path: path}
	if path != "" {
		snap, err := loadReserveSnapshot(path)
		if err != nil {
			log.Printf("[RESERVE] no usable snapshot at %s, starting at 0", path)
		} else {
			l.fund = snap.ReserveFundUSD
			log.Printf("[RESERVE] loaded fund=%.2f from %s", l.fund, path)
		}
	}
	return l
}

// Fund returns the cumulative reserve.
func (l *ReserveLedger) Fund() float64 { return l.fund }

// Accrue adds the reserve share of totalProfit to the fund and returns the
// day's contribution. The share is computed from totalProfit alone, so the
// contribution is the same whatever the fund already holds.
func (l *ReserveLedger) Accrue(totalProfit float64) float64 {
	daily := totalProfit * l.pct
	l.fund += daily
	if l.path != "" {
		snap := reserveSnapshot{
			ReserveFundUSD: l.fund,
			UpdatedAtISO:   time.Now().UTC().Format(time.RFC3339),
		}
		if err := saveReserveSnapshot(l.path, snap); err != nil {
			log.Printf("[RESERVE] save snapshot: %v", err)
		}
	}
	return daily
}

func loadReserveSnapshot(path string) (reserveSnapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return reserveSnapshot{}, err
	}
	var s reserveSnapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return reserveSnapshot{}, err
	}
	return s, nil
}

func saveReserveSnapshot(path string, s reserveSnapshot) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	// temp-and-rename so a crash mid-write never corrupts the snapshot
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
