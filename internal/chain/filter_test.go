package chain

import "testing"

func filterChain() []Row {
	rows := make([]Row, 0, 11)
	for strike := 21500.0; strike <= 22500; strike += 100 {
		rows = append(rows, Row{Strike: strike})
	}
	return rows
}

func TestFilterByRangeZeroReturnsSameReference(t *testing.T) {
	rows := filterChain()
	for _, rng := range []int{0, -1, -10} {
		out := FilterByRange(rows, rng, 22000, 100)
		if &out[0] != &rows[0] || len(out) != len(rows) {
			t.Errorf("rng=%d: must return the identical input slice", rng)
		}
	}
}

func TestFilterByRangeEmptyChain(t *testing.T) {
	var rows []Row
	out := FilterByRange(rows, 5, 22000, 100)
	if out != nil {
		t.Errorf("empty chain: got %v, want nil input back", out)
	}
}

func TestFilterByRangeWindow(t *testing.T) {
	rows := filterChain()

	out := FilterByRange(rows, 2, 22030, 100) // ATM rounds to 22000
	if len(out) != 5 {
		t.Fatalf("got %d rows, want 5", len(out))
	}
	if out[0].Strike != 21800 || out[len(out)-1].Strike != 22200 {
		t.Errorf("window = [%v, %v], want [21800, 22200]", out[0].Strike, out[len(out)-1].Strike)
	}
}

func TestFilterByRangeAllStrikesWithinWindow(t *testing.T) {
	rows := filterChain()
	spot, step := 22270.0, 100.0
	rng := 3

	atm := 22300.0 // round(22270/100)*100
	out := FilterByRange(rows, rng, spot, step)
	for _, r := range out {
		lo := atm - float64(rng)*step
		hi := atm + float64(rng)*step
		if r.Strike < lo || r.Strike > hi {
			t.Errorf("strike %v outside [%v, %v]", r.Strike, lo, hi)
		}
	}
}

func TestFilterByRangeBadStepReturnsInput(t *testing.T) {
	rows := filterChain()
	out := FilterByRange(rows, 2, 22000, 0)
	if len(out) != len(rows) {
		t.Error("non-positive step must disable filtering")
	}
}
