package flash

import (
	"math"
	"testing"
	"time"

	"github.com/marketlens/optionchain/internal/chain"
)

func row(strike, ceLTP, peLTP, ceOI, peOI float64) chain.Row {
	return chain.Row{
		Strike: strike,
		CE:     chain.Side{LTP: ceLTP, OI: ceOI},
		PE:     chain.Side{LTP: peLTP, OI: peOI},
	}
}

func newTestTracker(d time.Duration) (*Tracker, *time.Time) {
	t := NewTracker(d, nil)
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	t.now = func() time.Time { return now }
	return t, &now
}

func TestIngestFirstSnapshotNoFlashes(t *testing.T) {
	tr, _ := newTestTracker(DefaultDuration)
	defer tr.Close()

	out := tr.Ingest([]chain.Row{row(22000, 100, 90, 5000, 4000)})
	if len(out) != 0 {
		t.Errorf("first snapshot produced %d flashes, want 0", len(out))
	}
}

func TestIngestDetectsChangeWithDirection(t *testing.T) {
	tr, _ := newTestTracker(DefaultDuration)
	defer tr.Close()

	tr.Ingest([]chain.Row{row(22000, 100, 90, 5000, 4000)})
	out := tr.Ingest([]chain.Row{row(22000, 105, 85, 5000, 4000)})

	if len(out) != 2 {
		t.Fatalf("got %d flashes, want 2", len(out))
	}
	if e, ok := out["ce_ltp_22000"]; !ok || e.Direction != DirectionUp {
		t.Errorf("ce_ltp_22000 = %+v, want up", e)
	}
	if e, ok := out["pe_ltp_22000"]; !ok || e.Direction != DirectionDown {
		t.Errorf("pe_ltp_22000 = %+v, want down", e)
	}
}

func TestIngestNonFiniteNeverFlashes(t *testing.T) {
	tr, _ := newTestTracker(DefaultDuration)
	defer tr.Close()

	tr.Ingest([]chain.Row{row(22000, 100, 90, 5000, 4000)})

	r := row(22000, math.NaN(), 90, 5000, 4000)
	out := tr.Ingest([]chain.Row{r})
	if len(out) != 0 {
		t.Errorf("finite->NaN produced %d flashes, want 0", len(out))
	}

	// NaN -> finite must not flash either.
	out = tr.Ingest([]chain.Row{row(22000, 120, 90, 5000, 4000)})
	if len(out) != 0 {
		t.Errorf("NaN->finite produced %d flashes, want 0", len(out))
	}
}

func TestIngestUpdatesPrevUnconditionally(t *testing.T) {
	tr, _ := newTestTracker(DefaultDuration)
	defer tr.Close()

	tr.Ingest([]chain.Row{row(22000, 100, 90, 5000, 4000)})
	tr.Ingest([]chain.Row{row(22000, 100, 90, 5000, 4000)}) // no changes

	// A later change still diffs against the immediately preceding snapshot.
	out := tr.Ingest([]chain.Row{row(22000, 101, 90, 5000, 4000)})
	if e, ok := out["ce_ltp_22000"]; !ok || e.Direction != DirectionUp {
		t.Errorf("flash after no-op snapshot = %+v, want up", e)
	}
}

func TestIngestMergesAcrossBatches(t *testing.T) {
	tr, _ := newTestTracker(DefaultDuration)
	defer tr.Close()

	tr.Ingest([]chain.Row{row(22000, 100, 90, 5000, 4000), row(22100, 50, 60, 1000, 2000)})
	tr.Ingest([]chain.Row{row(22000, 105, 90, 5000, 4000), row(22100, 50, 60, 1000, 2000)})
	out := tr.Ingest([]chain.Row{row(22000, 105, 90, 5000, 4000), row(22100, 55, 60, 1000, 2000)})

	// Entry from the earlier batch survives the merge of the later one.
	if _, ok := out["ce_ltp_22000"]; !ok {
		t.Error("earlier batch entry lost on merge")
	}
	if _, ok := out["ce_ltp_22100"]; !ok {
		t.Error("new batch entry missing")
	}
}

func TestIngestRefreshesTimestampOnRepeatFlash(t *testing.T) {
	tr, now := newTestTracker(DefaultDuration)
	defer tr.Close()

	tr.Ingest([]chain.Row{row(22000, 100, 90, 5000, 4000)})
	first := tr.Ingest([]chain.Row{row(22000, 105, 90, 5000, 4000)})
	v1 := tr.Version()

	*now = now.Add(200 * time.Millisecond)
	second := tr.Ingest([]chain.Row{row(22000, 110, 90, 5000, 4000)})

	if !second["ce_ltp_22000"].At.After(first["ce_ltp_22000"].At) {
		t.Error("repeat flash must refresh the entry timestamp")
	}
	if second["ce_ltp_22000"].Direction != DirectionUp {
		t.Error("repeat flash direction wrong")
	}
	if tr.Version() == v1 {
		t.Error("version must bump on timestamp refresh, not only on key set changes")
	}
}

func TestEntriesPrunedAfterDuration(t *testing.T) {
	tr, now := newTestTracker(DefaultDuration)
	defer tr.Close()

	tr.Ingest([]chain.Row{row(22000, 100, 90, 5000, 4000)})
	tr.Ingest([]chain.Row{row(22000, 105, 90, 5000, 4000)})

	*now = now.Add(DefaultDuration + time.Millisecond)
	out := tr.Ingest([]chain.Row{row(22000, 105, 90, 5000, 4000)})
	if len(out) != 0 {
		t.Errorf("expired entries survived the merge prune: %v", out)
	}
}

func TestDeferredCleanupRemovesExpired(t *testing.T) {
	tr := NewTracker(30*time.Millisecond, nil)
	defer tr.Close()

	tr.Ingest([]chain.Row{row(22000, 100, 90, 5000, 4000)})
	tr.Ingest([]chain.Row{row(22000, 105, 90, 5000, 4000)})

	if len(tr.Entries()) != 1 {
		t.Fatalf("expected 1 live entry, got %d", len(tr.Entries()))
	}

	// duration + cleanupBuffer + margin
	time.Sleep(30*time.Millisecond + cleanupBuffer + 50*time.Millisecond)
	if n := len(tr.Entries()); n != 0 {
		t.Errorf("deferred cleanup left %d entries", n)
	}
}

func TestCleanupRescheduleProtectsNewerBatch(t *testing.T) {
	tr := NewTracker(60*time.Millisecond, nil)
	defer tr.Close()

	tr.Ingest([]chain.Row{row(22000, 100, 90, 5000, 4000)})
	tr.Ingest([]chain.Row{row(22000, 105, 90, 5000, 4000)})

	// Second batch lands before the first cleanup would have fired and
	// refreshes the entry; the rescheduled cleanup must not delete it early.
	time.Sleep(40 * time.Millisecond)
	tr.Ingest([]chain.Row{row(22000, 110, 90, 5000, 4000)})

	time.Sleep(40 * time.Millisecond) // past the first batch's deadline
	if len(tr.Entries()) != 1 {
		t.Error("cleanup from the older batch deleted a refreshed entry")
	}
}

func TestCloseClearsState(t *testing.T) {
	tr, _ := newTestTracker(DefaultDuration)
	tr.Ingest([]chain.Row{row(22000, 100, 90, 5000, 4000)})
	tr.Ingest([]chain.Row{row(22000, 105, 90, 5000, 4000)})

	tr.Close()
	if out := tr.Ingest([]chain.Row{row(22000, 110, 90, 5000, 4000)}); out != nil {
		t.Error("Ingest after Close must be a nil no-op")
	}
	tr.Close() // idempotent
}

func TestUpdatesSignals(t *testing.T) {
	tr, _ := newTestTracker(DefaultDuration)
	defer tr.Close()

	tr.Ingest([]chain.Row{row(22000, 100, 90, 5000, 4000)})
	tr.Ingest([]chain.Row{row(22000, 105, 90, 5000, 4000)})

	select {
	case <-tr.Updates():
	default:
		t.Error("expected an update signal after a flash")
	}
}
