package feed

import (
	"testing"
	"time"

	"github.com/marketlens/optionchain/internal/chain"
	"github.com/marketlens/optionchain/internal/replay"
)

func leg(strike float64, right string, side chain.Side) replay.Leg {
	return replay.Leg{Strike: strike, Right: right, Side: side}
}

func TestTickStore_ApplyBumpsVersion(t *testing.T) {
	store := NewTickStore("SPX", "2026-08-28")

	if store.Version() != 0 {
		t.Fatalf("expected version 0 before first apply, got %d", store.Version())
	}

	changed := store.Apply(&replay.Snapshot{
		Spot:      6450,
		Timestamp: time.Date(2026, 8, 26, 14, 30, 0, 0, time.UTC),
		Legs:      []replay.Leg{leg(6450, RightCall, chain.Side{OI: 1000, LTP: 40})},
	})
	if !changed {
		t.Error("expected first snapshot to register as a change")
	}
	if store.Version() != 1 {
		t.Errorf("expected version 1, got %d", store.Version())
	}
	if store.Spot() != 6450 {
		t.Errorf("expected spot 6450, got %v", store.Spot())
	}
}

func TestTickStore_UnchangedSnapshotKeepsVersion(t *testing.T) {
	store := NewTickStore("SPX", "2026-08-28")
	snap := &replay.Snapshot{
		Spot: 6450,
		Legs: []replay.Leg{leg(6450, RightCall, chain.Side{OI: 1000, LTP: 40})},
	}

	store.Apply(snap)
	v := store.Version()

	if store.Apply(snap) {
		t.Error("identical snapshot should not register as a change")
	}
	if store.Version() != v {
		t.Errorf("version should hold at %d, got %d", v, store.Version())
	}
}

func TestTickStore_DerivesLTPChange(t *testing.T) {
	store := NewTickStore("SPX", "2026-08-28")

	store.Apply(&replay.Snapshot{
		Spot: 6450,
		Legs: []replay.Leg{leg(6450, RightCall, chain.Side{OI: 1000, LTP: 40})},
	})
	store.Apply(&replay.Snapshot{
		Legs: []replay.Leg{leg(6450, RightCall, chain.Side{OI: 1100, LTP: 42.5})},
	})

	rows := store.Rows(25)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].CE.LTPChg == nil {
		t.Fatal("expected ltp_chg to be derived on second tick")
	}
	if got := *rows[0].CE.LTPChg; got != 2.5 {
		t.Errorf("expected ltp_chg 2.5, got %v", got)
	}
}

func TestTickStore_FirstTickHasNoLTPChange(t *testing.T) {
	store := NewTickStore("SPX", "2026-08-28")
	store.Apply(&replay.Snapshot{
		Spot: 6450,
		Legs: []replay.Leg{leg(6450, RightPut, chain.Side{OI: 500, LTP: 38})},
	})

	rows := store.Rows(25)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].PE.LTPChg != nil {
		t.Errorf("expected nil ltp_chg on first tick, got %v", *rows[0].PE.LTPChg)
	}
}

func TestTickStore_PartialBatchMerges(t *testing.T) {
	store := NewTickStore("SPX", "2026-08-28")

	store.Apply(&replay.Snapshot{
		Spot: 6450,
		Legs: []replay.Leg{
			leg(6425, RightCall, chain.Side{OI: 800, LTP: 60}),
			leg(6425, RightPut, chain.Side{OI: 700, LTP: 30}),
			leg(6450, RightCall, chain.Side{OI: 1000, LTP: 40}),
		},
	})
	// Second batch only touches one leg; the rest must survive.
	store.Apply(&replay.Snapshot{
		Legs: []replay.Leg{leg(6450, RightCall, chain.Side{OI: 1200, LTP: 44})},
	})

	rows := store.Rows(25)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Strike != 6425 || rows[0].CE.OI != 800 || rows[0].PE.OI != 700 {
		t.Errorf("untouched row changed: %+v", rows[0])
	}
	if rows[1].CE.OI != 1200 {
		t.Errorf("expected merged CE OI 1200, got %v", rows[1].CE.OI)
	}
}

func TestTickStore_UpdatesChannelSignals(t *testing.T) {
	store := NewTickStore("SPX", "2026-08-28")
	store.Apply(&replay.Snapshot{Spot: 6450})

	select {
	case <-store.Updates():
	default:
		t.Error("expected a pending update signal after a change")
	}
}

func TestRows_SortedAndATMFlagged(t *testing.T) {
	store := NewTickStore("SPX", "2026-08-28")
	store.Apply(&replay.Snapshot{
		Spot: 6462,
		Legs: []replay.Leg{
			leg(6500, RightCall, chain.Side{OI: 1}),
			leg(6425, RightCall, chain.Side{OI: 1}),
			leg(6450, RightCall, chain.Side{OI: 1}),
			leg(6475, RightCall, chain.Side{OI: 1}),
		},
	})

	rows := store.Rows(25)
	want := []float64{6425, 6450, 6475, 6500}
	for i, strike := range want {
		if rows[i].Strike != strike {
			t.Fatalf("row %d: expected strike %v, got %v", i, strike, rows[i].Strike)
		}
	}

	// round(6462/25)*25 = 6450
	for i, row := range rows {
		wantATM := row.Strike == 6450
		if row.IsATM != wantATM {
			t.Errorf("row %d (strike %v): IsATM = %v, want %v", i, row.Strike, row.IsATM, wantATM)
		}
	}
}

func TestRows_NoSpotNoATM(t *testing.T) {
	store := NewTickStore("SPX", "2026-08-28")
	store.Apply(&replay.Snapshot{
		Legs: []replay.Leg{leg(6450, RightCall, chain.Side{OI: 1})},
	})

	rows := store.Rows(25)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].IsATM {
		t.Error("no row should be ATM without a spot price")
	}
}

func TestLegKey(t *testing.T) {
	if got := LegKey("SPX", 6450, RightCall); got != "SPX:6450:CE" {
		t.Errorf("expected SPX:6450:CE, got %s", got)
	}
	if got := LegKey("SPY", 647.5, RightPut); got != "SPY:647.5:PE" {
		t.Errorf("expected SPY:647.5:PE, got %s", got)
	}
}

func TestCooldown_DropsRapidCalls(t *testing.T) {
	cd := NewCooldown(time.Hour)

	if !cd.Allow() {
		t.Fatal("first refresh should be allowed")
	}
	if cd.Allow() {
		t.Error("second refresh inside the cooldown window should be dropped")
	}
}
